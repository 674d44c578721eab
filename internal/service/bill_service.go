package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"voltscan/internal/config"
	"voltscan/internal/domain"
	"voltscan/internal/extract"
	"voltscan/internal/ocr"
	"voltscan/internal/port"
	"voltscan/internal/validator"
)

// Recognizer is the OCR selector contract the orchestrator depends on.
type Recognizer interface {
	Recognize(ctx context.Context, input port.RecognizeInput) (*domain.RecognizedText, error)
}

// UploadBillInput carries an inbound document upload.
type UploadBillInput struct {
	FileName      string
	ContentType   string
	Size          int64
	Body          io.Reader
	MediaCategory domain.MediaCategory
}

// BillService is the engine's orchestration surface.
type BillService interface {
	CreateFromUpload(ctx context.Context, input UploadBillInput) (*domain.BillDocument, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.BillDocument, error)
	List(ctx context.Context, offset, limit int) ([]domain.BillDocument, int, error)
	Retry(ctx context.Context, id uuid.UUID) (*domain.BillDocument, error)
	ProcessBill(ctx context.Context, doc *domain.BillDocument) (*domain.BillDocument, error)
}

type billService struct {
	repo       port.BillRepository
	storage    port.ObjectStorage
	recognizer Recognizer
	parser     *extract.Parser
	email      port.EmailSender
	s3cfg      *config.S3Config
	ocrCfg     *config.OCRConfig
}

// NewBillService wires the orchestrator.
func NewBillService(
	repo port.BillRepository,
	storage port.ObjectStorage,
	recognizer Recognizer,
	parser *extract.Parser,
	email port.EmailSender,
	s3cfg *config.S3Config,
	ocrCfg *config.OCRConfig,
) BillService {
	return &billService{
		repo:       repo,
		storage:    storage,
		recognizer: recognizer,
		parser:     parser,
		email:      email,
		s3cfg:      s3cfg,
		ocrCfg:     ocrCfg,
	}
}

func (s *billService) CreateFromUpload(ctx context.Context, input UploadBillInput) (*domain.BillDocument, error) {
	if _, ok := domain.AllowedContentTypes[input.ContentType]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}
	if input.Size > s.s3cfg.MaxFileSizeMB*1024*1024 {
		return nil, domain.ErrFileTooLarge
	}

	id := uuid.New()
	doc := &domain.BillDocument{
		ID:            id,
		FileName:      input.FileName,
		MediaCategory: input.MediaCategory,
		S3Bucket:      s.s3cfg.Bucket,
		S3Key:         fmt.Sprintf("bills/%s/%s", id, input.FileName),
		Status:        domain.BillStatusQueued,
	}

	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      doc.S3Bucket,
		Key:         doc.S3Key,
		Body:        input.Body,
		ContentType: input.ContentType,
		Size:        input.Size,
	}); err != nil {
		log.Printf("billService.CreateFromUpload: upload failed for %s: %v", input.FileName, err)
		return nil, domain.ErrUploadFailed
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("creating bill document: %w", err)
	}

	log.Printf("billService.CreateFromUpload: queued document %s (%s, %s)", doc.ID, doc.FileName, doc.MediaCategory)
	return doc, nil
}

func (s *billService) GetByID(ctx context.Context, id uuid.UUID) (*domain.BillDocument, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *billService) List(ctx context.Context, offset, limit int) ([]domain.BillDocument, int, error) {
	return s.repo.List(ctx, offset, limit)
}

func (s *billService) Retry(ctx context.Context, id uuid.UUID) (*domain.BillDocument, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != domain.BillStatusFailed {
		return nil, domain.ErrBillNotRetryable
	}
	if err := s.repo.Requeue(ctx, id); err != nil {
		return nil, fmt.Errorf("requeueing bill document: %w", err)
	}
	doc.Status = domain.BillStatusQueued
	log.Printf("billService.Retry: requeued document %s", id)
	return doc, nil
}

// ProcessBill runs the full pipeline for one document: OCR with bounded
// retry, field extraction, validation, persistence, result blob upload, and
// a review alert when the charge reconciliation tolerance is exceeded.
//
// Only the OCR step is retried; extraction and validation are pure functions
// over the recognized text. On cancellation or terminal OCR failure nothing
// partial is recorded as a result: the document is persisted without
// structured data so the upload is never lost.
func (s *billService) ProcessBill(ctx context.Context, doc *domain.BillDocument) (*domain.BillDocument, error) {
	doc.Attempts++

	fileBytes, err := s.storage.Download(ctx, doc.S3Bucket, doc.S3Key)
	if err != nil {
		s.failProcessing(ctx, doc, fmt.Sprintf("downloading document: %v", err))
		return nil, fmt.Errorf("downloading document: %w", err)
	}

	recognized, err := s.recognizeWithRetry(ctx, port.RecognizeInput{
		FileName:      doc.FileName,
		FileBytes:     fileBytes,
		MediaCategory: doc.MediaCategory,
	})
	if err != nil {
		s.handleOCRFailure(ctx, doc, err)
		return nil, err
	}

	bill := s.parser.Parse(recognized.Text)
	result := validator.Validate(bill, recognized)

	billJSON, err := json.Marshal(bill)
	if err != nil {
		s.failProcessing(ctx, doc, fmt.Sprintf("serializing parsed bill: %v", err))
		return nil, fmt.Errorf("%w: serializing parsed bill: %v", domain.ErrParsingFailed, err)
	}
	validationJSON, err := json.Marshal(result)
	if err != nil {
		s.failProcessing(ctx, doc, fmt.Sprintf("serializing validation: %v", err))
		return nil, fmt.Errorf("%w: serializing validation: %v", domain.ErrValidationUnexecuted, err)
	}

	now := time.Now().UTC()
	doc.Status = domain.BillStatusCompleted
	doc.RawText = recognized.Text
	doc.OCREngine = recognized.EngineID
	doc.OCRConfidence = &recognized.Confidence
	doc.ParsedBill = billJSON
	doc.Validation = validationJSON
	doc.ProcessingError = ""
	doc.ProcessedAt = &now
	doc.RetryAfter = nil

	if err := s.repo.UpdateResults(ctx, doc); err != nil {
		return nil, fmt.Errorf("saving extraction results: %w", err)
	}

	log.Printf("billService.ProcessBill: document %s completed (engine=%s, ocr=%.2f, parse=%.2f, valid=%t)",
		doc.ID, recognized.EngineID, recognized.Confidence, bill.ParseConfidence, result.IsValid)

	s.archiveResult(ctx, doc, recognized, billJSON, validationJSON)

	if result.ToleranceExceeded && s.email != nil {
		if err := s.email.SendReviewAlert(ctx, doc, &result); err != nil {
			log.Printf("billService.ProcessBill: review alert failed for %s: %v", doc.ID, err)
		}
	}

	return doc, nil
}

// recognizeWithRetry wraps the selector in the bounded exponential-backoff
// retry policy. OCR engine calls are the only step in the pipeline with
// transient failure modes.
func (s *billService) recognizeWithRetry(ctx context.Context, input port.RecognizeInput) (*domain.RecognizedText, error) {
	maxAttempts := s.ocrCfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := s.ocrCfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		recognized, err := s.recognizer.Recognize(ctx, input)
		if err == nil {
			return recognized, nil
		}
		lastErr = err
		log.Printf("billService.recognizeWithRetry: attempt %d/%d failed: %v", attempt, maxAttempts, err)

		if attempt == maxAttempts || ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	var allFailed *ocr.AllEnginesFailedError
	if errors.As(lastErr, &allFailed) {
		return nil, lastErr
	}
	return nil, fmt.Errorf("ocr selection failed after %d attempts: %w", maxAttempts, lastErr)
}

// Document-level retry policy. Attempts counts ProcessBill dispatches;
// recognizeWithRetry's in-process retries are a separate, inner loop.
const (
	maxDocumentAttempts = 3
	requeueBackoff      = time.Minute
)

// handleOCRFailure requeues the document with a backoff while attempts
// remain, and records a terminal failure once they are spent. OCR is the
// transient failure class here: engines come back, deadlines pass.
func (s *billService) handleOCRFailure(ctx context.Context, doc *domain.BillDocument, ocrErr error) {
	if doc.Attempts < maxDocumentAttempts {
		retryAt := time.Now().UTC().Add(time.Duration(doc.Attempts) * requeueBackoff)
		doc.Status = domain.BillStatusQueued
		doc.ProcessingError = fmt.Sprintf("ocr failed on attempt %d, queued for retry: %v", doc.Attempts, ocrErr)
		doc.RetryAfter = &retryAt

		pctx, cancel := persistCtx(ctx)
		defer cancel()
		if err := s.repo.UpdateResults(pctx, doc); err != nil {
			log.Printf("billService.handleOCRFailure: failed to requeue document %s: %v", doc.ID, err)
			return
		}
		log.Printf("billService.handleOCRFailure: document %s queued for retry after %s (attempt %d/%d)",
			doc.ID, retryAt.Format(time.RFC3339), doc.Attempts, maxDocumentAttempts)
		return
	}
	s.failProcessing(ctx, doc, fmt.Sprintf("ocr failed after %d attempts: %v", doc.Attempts, ocrErr))
}

// failProcessing records a terminal failure. The raw document stays in
// storage and the row keeps whatever text was recovered, so a human can
// still review the upload.
func (s *billService) failProcessing(ctx context.Context, doc *domain.BillDocument, reason string) {
	now := time.Now().UTC()
	doc.Status = domain.BillStatusFailed
	doc.ProcessingError = reason
	doc.ProcessedAt = &now
	doc.RetryAfter = nil

	pctx, cancel := persistCtx(ctx)
	defer cancel()
	if err := s.repo.UpdateResults(pctx, doc); err != nil {
		log.Printf("billService.failProcessing: failed to persist failure for %s: %v", doc.ID, err)
	}
	log.Printf("billService.failProcessing: document %s failed: %s", doc.ID, reason)
}

// persistCtx detaches failure persistence from the pipeline deadline: an
// expired per-document context must not strand a claimed row in processing.
func persistCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
}

// archiveResult hands the composite output to the object store as an opaque
// blob. Failures are logged, not fatal: the database row is the source of
// truth and the blob is a downstream convenience.
func (s *billService) archiveResult(ctx context.Context, doc *domain.BillDocument, recognized *domain.RecognizedText, billJSON, validationJSON []byte) {
	if s.s3cfg.ResultsBucket == "" {
		return
	}
	blob, err := json.Marshal(map[string]json.RawMessage{
		"recognized_text": mustJSON(recognized),
		"parsed_bill":     billJSON,
		"validation":      validationJSON,
	})
	if err != nil {
		log.Printf("billService.archiveResult: marshaling blob for %s: %v", doc.ID, err)
		return
	}
	key := fmt.Sprintf("results/%s.json", doc.ID)
	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3cfg.ResultsBucket,
		Key:         key,
		Body:        bytes.NewReader(blob),
		ContentType: "application/json",
		Size:        int64(len(blob)),
	}); err != nil {
		log.Printf("billService.archiveResult: upload failed for %s: %v", doc.ID, err)
	}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}
