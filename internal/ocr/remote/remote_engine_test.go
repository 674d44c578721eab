package remote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voltscan/internal/config"
	"voltscan/internal/domain"
	"voltscan/internal/ocr"
	"voltscan/internal/ocr/remote"
	"voltscan/internal/port"
)

func sidecar(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/extract", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "bill.pdf", header.Filename)
		assert.Equal(t, "pdf", r.FormValue("media_category"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func pdfInput() port.RecognizeInput {
	return port.RecognizeInput{
		FileName:      "bill.pdf",
		FileBytes:     []byte("%PDF-1.4"),
		MediaCategory: domain.MediaPDF,
	}
}

func newEngine(url string) *remote.Engine {
	return remote.NewEngine(&config.RemoteEngineConfig{Name: "paddle", BaseURL: url, TimeoutSecs: 5})
}

func TestEngine_RecognizeAveragesBlockConfidences(t *testing.T) {
	srv := sidecar(t, http.StatusOK, `{
		"file_name": "bill.pdf",
		"pages": 1,
		"text": "Total Amount Due: $258.00",
		"blocks": [
			{"text": "Total Amount Due:", "confidence": 0.9},
			{"text": "$258.00", "confidence": 0.7}
		],
		"metadata": {"engine": "paddleocr"}
	}`)
	defer srv.Close()

	result, err := newEngine(srv.URL).Recognize(context.Background(), pdfInput())

	require.NoError(t, err)
	assert.Equal(t, "Total Amount Due: $258.00", result.Text)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
	assert.Equal(t, "paddle", result.EngineID)
	assert.Empty(t, result.Warnings)
}

func TestEngine_DigitalTextWithoutBlocks(t *testing.T) {
	srv := sidecar(t, http.StatusOK, `{"text": "embedded pdf text", "blocks": [], "metadata": {}}`)
	defer srv.Close()

	result, err := newEngine(srv.URL).Recognize(context.Background(), pdfInput())

	require.NoError(t, err)
	assert.InDelta(t, 0.95, result.Confidence, 1e-9)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "no per-block confidences")
}

func TestEngine_NegativeConfidenceClampedToZero(t *testing.T) {
	srv := sidecar(t, http.StatusOK, `{
		"text": "x",
		"blocks": [{"text": "x", "confidence": -1}, {"text": "y", "confidence": 0.5}],
		"metadata": {}
	}`)
	defer srv.Close()

	result, err := newEngine(srv.URL).Recognize(context.Background(), pdfInput())

	require.NoError(t, err)
	assert.InDelta(t, 0.25, result.Confidence, 1e-9)
}

func TestEngine_NonOKStatusIsEngineError(t *testing.T) {
	srv := sidecar(t, http.StatusInternalServerError, `{"detail": "ocr backend crashed"}`)
	defer srv.Close()

	result, err := newEngine(srv.URL).Recognize(context.Background(), pdfInput())

	assert.Nil(t, result)
	var engErr *ocr.EngineError
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, "paddle", engErr.Engine)
	assert.Contains(t, engErr.Error(), "status 500")
}

func TestEngine_ConnectionRefusedIsEngineError(t *testing.T) {
	result, err := newEngine("http://127.0.0.1:1").Recognize(context.Background(), pdfInput())

	assert.Nil(t, result)
	var engErr *ocr.EngineError
	assert.ErrorAs(t, err, &engErr)
}
