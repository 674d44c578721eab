package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"voltscan/internal/config"
	"voltscan/internal/domain"
	"voltscan/internal/extract"
	"voltscan/internal/ocr"
	"voltscan/internal/port"
	"voltscan/internal/service"
	"voltscan/mocks"
)

const cleanBillText = `Account Number: 1234567890
Billing Period: 05/12/2024 - 06/12/2024
Total Usage: 1,680 kWh
Energy Charge $152.30
Delivery Charge $105.70
Total Amount Due: $258.00
`

const skewedBillText = `Account Number: 99887
Total Usage: 1,000 kWh
Energy Charge $100.00
Delivery Charge $50.00
Total Amount Due: $200.00
`

type fixture struct {
	repo       *mocks.MockBillRepo
	storage    *mocks.MockObjectStorage
	recognizer *mocks.MockRecognizer
	email      *mocks.MockEmailSender
	svc        service.BillService
}

func newFixture(ocrCfg *config.OCRConfig) *fixture {
	f := &fixture{
		repo:       new(mocks.MockBillRepo),
		storage:    new(mocks.MockObjectStorage),
		recognizer: new(mocks.MockRecognizer),
		email:      new(mocks.MockEmailSender),
	}
	if ocrCfg == nil {
		ocrCfg = &config.OCRConfig{MaxAttempts: 1, RetryBackoff: time.Millisecond}
	}
	s3cfg := &config.S3Config{Bucket: "uploads", ResultsBucket: "results", MaxFileSizeMB: 10}
	f.svc = service.NewBillService(f.repo, f.storage, f.recognizer, extract.NewParser(), f.email, s3cfg, ocrCfg)
	return f
}

func queuedDoc() *domain.BillDocument {
	return &domain.BillDocument{
		ID:            uuid.New(),
		FileName:      "bill.pdf",
		MediaCategory: domain.MediaPDF,
		S3Bucket:      "uploads",
		S3Key:         "bills/x/bill.pdf",
		Status:        domain.BillStatusProcessing,
	}
}

func recognized(text string) *domain.RecognizedText {
	return &domain.RecognizedText{Text: text, Confidence: 0.9, EngineID: "paddle", ElapsedMs: 120}
}

func TestCreateFromUpload_RejectsUnsupportedContentType(t *testing.T) {
	f := newFixture(nil)
	_, err := f.svc.CreateFromUpload(context.Background(), service.UploadBillInput{
		FileName:    "bill.docx",
		ContentType: "application/msword",
		Size:        100,
		Body:        strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	f.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestCreateFromUpload_RejectsOversizedFile(t *testing.T) {
	f := newFixture(nil)
	_, err := f.svc.CreateFromUpload(context.Background(), service.UploadBillInput{
		FileName:    "bill.pdf",
		ContentType: "application/pdf",
		Size:        11 << 20,
		Body:        strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestCreateFromUpload_QueuesDocument(t *testing.T) {
	f := newFixture(nil)
	f.storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{Location: "s3://uploads/x"}, nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	doc, err := f.svc.CreateFromUpload(context.Background(), service.UploadBillInput{
		FileName:      "bill.pdf",
		ContentType:   "application/pdf",
		Size:          100,
		Body:          strings.NewReader("%PDF"),
		MediaCategory: domain.MediaPDF,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.BillStatusQueued, doc.Status)
	assert.Equal(t, "uploads", doc.S3Bucket)
	assert.Contains(t, doc.S3Key, doc.ID.String())
	f.repo.AssertExpectations(t)
}

func TestCreateFromUpload_UploadFailure(t *testing.T) {
	f := newFixture(nil)
	f.storage.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("s3 down"))

	_, err := f.svc.CreateFromUpload(context.Background(), service.UploadBillInput{
		FileName:    "bill.pdf",
		ContentType: "application/pdf",
		Size:        100,
		Body:        strings.NewReader("%PDF"),
	})

	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProcessBill_Success(t *testing.T) {
	f := newFixture(nil)
	doc := queuedDoc()

	f.storage.On("Download", mock.Anything, "uploads", doc.S3Key).Return([]byte("%PDF"), nil)
	f.recognizer.On("Recognize", mock.Anything, mock.Anything).Return(recognized(cleanBillText), nil)
	f.repo.On("UpdateResults", mock.Anything, doc).Return(nil)
	f.storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "results" && strings.HasSuffix(in.Key, doc.ID.String()+".json")
	})).Return(&port.UploadOutput{}, nil)

	got, err := f.svc.ProcessBill(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, domain.BillStatusCompleted, got.Status)
	assert.Equal(t, 1, got.Attempts)
	assert.Equal(t, "paddle", got.OCREngine)
	require.NotNil(t, got.OCRConfidence)
	assert.Equal(t, 0.9, *got.OCRConfidence)
	assert.Equal(t, cleanBillText, got.RawText)
	require.NotNil(t, got.ProcessedAt)

	var bill domain.ParsedBill
	require.NoError(t, json.Unmarshal(got.ParsedBill, &bill))
	assert.Equal(t, "1234567890", bill.AccountNumber)
	require.NotNil(t, bill.TotalAmount)
	assert.Equal(t, 258.0, *bill.TotalAmount)

	var result domain.ValidationResult
	require.NoError(t, json.Unmarshal(got.Validation, &result))
	assert.False(t, result.ToleranceExceeded)

	f.email.AssertNotCalled(t, "SendReviewAlert", mock.Anything, mock.Anything, mock.Anything)
	f.storage.AssertExpectations(t)
}

func TestProcessBill_RetriesOCRThenSucceeds(t *testing.T) {
	f := newFixture(&config.OCRConfig{MaxAttempts: 3, RetryBackoff: time.Millisecond})
	doc := queuedDoc()

	f.storage.On("Download", mock.Anything, mock.Anything, mock.Anything).Return([]byte("%PDF"), nil)
	f.recognizer.On("Recognize", mock.Anything, mock.Anything).
		Return(nil, &ocr.AllEnginesFailedError{Errors: map[string]error{"paddle": errors.New("timeout")}}).Twice()
	f.recognizer.On("Recognize", mock.Anything, mock.Anything).Return(recognized(cleanBillText), nil).Once()
	f.repo.On("UpdateResults", mock.Anything, doc).Return(nil)
	f.storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil)

	got, err := f.svc.ProcessBill(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, domain.BillStatusCompleted, got.Status)
	f.recognizer.AssertNumberOfCalls(t, "Recognize", 3)
}

func TestProcessBill_OCRFailureRequeuesWithBackoff(t *testing.T) {
	f := newFixture(&config.OCRConfig{MaxAttempts: 2, RetryBackoff: time.Millisecond})
	doc := queuedDoc()

	f.storage.On("Download", mock.Anything, mock.Anything, mock.Anything).Return([]byte("%PDF"), nil)
	f.recognizer.On("Recognize", mock.Anything, mock.Anything).
		Return(nil, &ocr.AllEnginesFailedError{Errors: map[string]error{"paddle": errors.New("timeout")}})
	f.repo.On("UpdateResults", mock.Anything, doc).Return(nil)

	_, err := f.svc.ProcessBill(context.Background(), doc)

	var allFailed *ocr.AllEnginesFailedError
	require.ErrorAs(t, err, &allFailed)
	assert.Equal(t, domain.BillStatusQueued, doc.Status)
	assert.Equal(t, 1, doc.Attempts)
	require.NotNil(t, doc.RetryAfter)
	assert.True(t, doc.RetryAfter.After(time.Now().UTC().Add(30*time.Second)))
	assert.Contains(t, doc.ProcessingError, "queued for retry")
	assert.Nil(t, doc.ParsedBill)
	assert.Nil(t, doc.Validation)
	f.repo.AssertCalled(t, "UpdateResults", mock.Anything, doc)
	f.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestProcessBill_OCRFailureAtAttemptCapIsTerminal(t *testing.T) {
	f := newFixture(&config.OCRConfig{MaxAttempts: 2, RetryBackoff: time.Millisecond})
	doc := queuedDoc()
	doc.Attempts = 2

	f.storage.On("Download", mock.Anything, mock.Anything, mock.Anything).Return([]byte("%PDF"), nil)
	f.recognizer.On("Recognize", mock.Anything, mock.Anything).
		Return(nil, &ocr.AllEnginesFailedError{Errors: map[string]error{"paddle": errors.New("timeout")}})
	f.repo.On("UpdateResults", mock.Anything, doc).Return(nil)

	_, err := f.svc.ProcessBill(context.Background(), doc)

	var allFailed *ocr.AllEnginesFailedError
	require.ErrorAs(t, err, &allFailed)
	assert.Equal(t, domain.BillStatusFailed, doc.Status)
	assert.Contains(t, doc.ProcessingError, "after 3 attempts")
	assert.Nil(t, doc.RetryAfter)
	assert.Nil(t, doc.ParsedBill)
	assert.Nil(t, doc.Validation)
	f.recognizer.AssertNumberOfCalls(t, "Recognize", 2)
	f.repo.AssertCalled(t, "UpdateResults", mock.Anything, doc)
	f.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestProcessBill_FailurePersistsAfterContextCancel(t *testing.T) {
	f := newFixture(&config.OCRConfig{MaxAttempts: 1, RetryBackoff: time.Millisecond})
	doc := queuedDoc()
	doc.Attempts = 2

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.storage.On("Download", mock.Anything, mock.Anything, mock.Anything).Return([]byte("%PDF"), nil)
	f.recognizer.On("Recognize", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { cancel() }).
		Return(nil, &ocr.AllEnginesFailedError{Errors: map[string]error{"paddle": errors.New("timeout")}})

	var persistCtxErr error
	f.repo.On("UpdateResults", mock.Anything, doc).
		Run(func(args mock.Arguments) { persistCtxErr = args.Get(0).(context.Context).Err() }).
		Return(nil)

	_, err := f.svc.ProcessBill(ctx, doc)

	require.Error(t, err)
	assert.Equal(t, domain.BillStatusFailed, doc.Status)
	f.repo.AssertCalled(t, "UpdateResults", mock.Anything, doc)
	assert.NoError(t, persistCtxErr)
}

func TestProcessBill_DownloadFailureIsTerminal(t *testing.T) {
	f := newFixture(nil)
	doc := queuedDoc()

	f.storage.On("Download", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("no such key"))
	f.repo.On("UpdateResults", mock.Anything, doc).Return(nil)

	_, err := f.svc.ProcessBill(context.Background(), doc)

	require.Error(t, err)
	assert.Equal(t, domain.BillStatusFailed, doc.Status)
	f.recognizer.AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything)
}

func TestProcessBill_ToleranceExceededTriggersReviewAlert(t *testing.T) {
	f := newFixture(nil)
	doc := queuedDoc()

	f.storage.On("Download", mock.Anything, mock.Anything, mock.Anything).Return([]byte("%PDF"), nil)
	f.recognizer.On("Recognize", mock.Anything, mock.Anything).Return(recognized(skewedBillText), nil)
	f.repo.On("UpdateResults", mock.Anything, doc).Return(nil)
	f.storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil)
	f.email.On("SendReviewAlert", mock.Anything, doc, mock.Anything).Return(nil)

	got, err := f.svc.ProcessBill(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, domain.BillStatusCompleted, got.Status)

	var result domain.ValidationResult
	require.NoError(t, json.Unmarshal(got.Validation, &result))
	assert.True(t, result.ToleranceExceeded)
	assert.InDelta(t, 0.25, result.TotalVariance, 1e-9)

	f.email.AssertCalled(t, "SendReviewAlert", mock.Anything, doc, mock.Anything)
}

func TestRetry_OnlyFailedDocuments(t *testing.T) {
	f := newFixture(nil)
	id := uuid.New()

	f.repo.On("GetByID", mock.Anything, id).Return(&domain.BillDocument{ID: id, Status: domain.BillStatusCompleted}, nil)

	_, err := f.svc.Retry(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrBillNotRetryable)
	f.repo.AssertNotCalled(t, "Requeue", mock.Anything, mock.Anything)
}

func TestRetry_RequeuesFailedDocument(t *testing.T) {
	f := newFixture(nil)
	id := uuid.New()

	f.repo.On("GetByID", mock.Anything, id).Return(&domain.BillDocument{ID: id, Status: domain.BillStatusFailed}, nil)
	f.repo.On("Requeue", mock.Anything, id).Return(nil)

	doc, err := f.svc.Retry(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, domain.BillStatusQueued, doc.Status)
	f.repo.AssertExpectations(t)
}
