package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"voltscan/internal/config"
	"voltscan/internal/domain"
	"voltscan/internal/ocr"
	"voltscan/internal/port"
)

// Engine calls an OCR sidecar service over HTTP. The sidecar exposes
// POST /extract taking a multipart file and returning recognized text with
// per-block confidences.
type Engine struct {
	name    string
	baseURL string
	client  *http.Client
}

// NewEngine creates a remote OCR engine from its config.
func NewEngine(cfg *config.RemoteEngineConfig) *Engine {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Engine{
		name:    cfg.Name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (e *Engine) Name() string { return e.name }

// extractResponse mirrors the sidecar's /extract response shape.
type extractResponse struct {
	FileName string `json:"file_name"`
	Pages    int    `json:"pages"`
	Text     string `json:"text"`
	Blocks   []struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"blocks"`
	Metadata struct {
		Engine string `json:"engine"`
	} `json:"metadata"`
}

func (e *Engine) Recognize(ctx context.Context, input port.RecognizeInput) (*domain.RecognizedText, error) {
	start := time.Now()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", input.FileName)
	if err != nil {
		return nil, &ocr.EngineError{Engine: e.name, Err: fmt.Errorf("building multipart body: %w", err)}
	}
	if _, err := part.Write(input.FileBytes); err != nil {
		return nil, &ocr.EngineError{Engine: e.name, Err: fmt.Errorf("writing file part: %w", err)}
	}
	if err := writer.WriteField("media_category", string(input.MediaCategory)); err != nil {
		return nil, &ocr.EngineError{Engine: e.name, Err: fmt.Errorf("writing field: %w", err)}
	}
	if err := writer.Close(); err != nil {
		return nil, &ocr.EngineError{Engine: e.name, Err: fmt.Errorf("closing multipart body: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/extract", &body)
	if err != nil {
		return nil, &ocr.EngineError{Engine: e.name, Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &ocr.EngineError{Engine: e.name, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ocr.EngineError{Engine: e.name, Err: fmt.Errorf("reading response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ocr.EngineError{Engine: e.name, Err: fmt.Errorf("extract returned status %d: %s", resp.StatusCode, truncate(string(raw), 256))}
	}

	var out extractResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &ocr.EngineError{Engine: e.name, Err: fmt.Errorf("decoding response: %w", err)}
	}

	var warnings []string
	confidence := meanBlockConfidence(out)
	if len(out.Blocks) == 0 && out.Text != "" {
		// Sidecar returned plain text without block geometry.
		warnings = append(warnings, "no per-block confidences reported")
	}

	return &domain.RecognizedText{
		Text:       out.Text,
		Confidence: confidence,
		EngineID:   e.name,
		ElapsedMs:  time.Since(start).Milliseconds(),
		Warnings:   warnings,
	}, nil
}

// meanBlockConfidence averages per-block confidences, clamping the sidecar's
// occasional -1 "unknown" markers to zero. Without blocks a digital-text
// extraction is assumed and rated accordingly.
func meanBlockConfidence(out extractResponse) float64 {
	if len(out.Blocks) == 0 {
		if strings.TrimSpace(out.Text) == "" {
			return 0
		}
		return 0.95
	}
	var sum float64
	for _, b := range out.Blocks {
		c := b.Confidence
		if c < 0 {
			c = 0
		}
		if c > 1 {
			c = 1
		}
		sum += c
	}
	return sum / float64(len(out.Blocks))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
