package port

import (
	"context"

	"github.com/google/uuid"

	"voltscan/internal/domain"
)

// BillRepository defines the contract for bill document persistence.
type BillRepository interface {
	Create(ctx context.Context, doc *domain.BillDocument) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.BillDocument, error)
	List(ctx context.Context, offset, limit int) ([]domain.BillDocument, int, error)
	// ClaimQueued atomically flips up to limit queued documents to processing
	// and returns them, skipping rows whose retry_after is in the future.
	ClaimQueued(ctx context.Context, limit int) ([]domain.BillDocument, error)
	UpdateResults(ctx context.Context, doc *domain.BillDocument) error
	Requeue(ctx context.Context, id uuid.UUID) error
}
