package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"voltscan/internal/domain"
	"voltscan/internal/port"
)

type billRepo struct {
	db *sqlx.DB
}

// NewBillRepo creates a new PostgreSQL-backed BillRepository.
func NewBillRepo(db *sqlx.DB) port.BillRepository {
	return &billRepo{db: db}
}

func (r *billRepo) Create(ctx context.Context, doc *domain.BillDocument) error {
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	query := `INSERT INTO bill_documents (
		id, file_name, media_category, s3_bucket, s3_key,
		status, attempts, retry_after,
		raw_text, ocr_engine, ocr_confidence,
		parsed_bill, validation, processing_error, processed_at,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8,
		$9, $10, $11,
		$12, $13, $14, $15,
		$16, $17
	)`

	_, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.FileName, doc.MediaCategory, doc.S3Bucket, doc.S3Key,
		doc.Status, doc.Attempts, doc.RetryAfter,
		doc.RawText, doc.OCREngine, doc.OCRConfidence,
		doc.ParsedBill, doc.Validation, doc.ProcessingError, doc.ProcessedAt,
		doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("billRepo.Create: %w", err)
	}
	return nil
}

func (r *billRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.BillDocument, error) {
	var doc domain.BillDocument
	err := r.db.GetContext(ctx, &doc, "SELECT * FROM bill_documents WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBillNotFound
		}
		return nil, fmt.Errorf("billRepo.GetByID: %w", err)
	}
	return &doc, nil
}

func (r *billRepo) List(ctx context.Context, offset, limit int) ([]domain.BillDocument, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM bill_documents"); err != nil {
		return nil, 0, fmt.Errorf("billRepo.List count: %w", err)
	}

	docs := []domain.BillDocument{}
	err := r.db.SelectContext(ctx, &docs,
		"SELECT * FROM bill_documents ORDER BY created_at DESC OFFSET $1 LIMIT $2", offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("billRepo.List: %w", err)
	}
	return docs, total, nil
}

// ClaimQueued atomically flips up to limit queued documents to processing.
// FOR UPDATE SKIP LOCKED keeps concurrent workers from claiming the same row.
func (r *billRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.BillDocument, error) {
	query := `UPDATE bill_documents SET status = $1, updated_at = $2
		WHERE id IN (
			SELECT id FROM bill_documents
			WHERE status = $3 AND (retry_after IS NULL OR retry_after <= $2)
			ORDER BY created_at
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING *`

	docs := []domain.BillDocument{}
	err := r.db.SelectContext(ctx, &docs, query,
		domain.BillStatusProcessing, time.Now().UTC(), domain.BillStatusQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("billRepo.ClaimQueued: %w", err)
	}
	return docs, nil
}

func (r *billRepo) UpdateResults(ctx context.Context, doc *domain.BillDocument) error {
	doc.UpdatedAt = time.Now().UTC()

	query := `UPDATE bill_documents SET
		status = $2, attempts = $3, retry_after = $4,
		raw_text = $5, ocr_engine = $6, ocr_confidence = $7,
		parsed_bill = $8, validation = $9,
		processing_error = $10, processed_at = $11, updated_at = $12
	WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		doc.ID,
		doc.Status, doc.Attempts, doc.RetryAfter,
		doc.RawText, doc.OCREngine, doc.OCRConfidence,
		doc.ParsedBill, doc.Validation,
		doc.ProcessingError, doc.ProcessedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("billRepo.UpdateResults: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("billRepo.UpdateResults rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrBillNotFound
	}
	return nil
}

func (r *billRepo) Requeue(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE bill_documents SET
		status = $2, processing_error = '', retry_after = NULL, updated_at = $3
	WHERE id = $1 AND status = $4`

	result, err := r.db.ExecContext(ctx, query,
		id, domain.BillStatusQueued, time.Now().UTC(), domain.BillStatusFailed)
	if err != nil {
		return fmt.Errorf("billRepo.Requeue: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("billRepo.Requeue rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrBillNotRetryable
	}
	return nil
}
