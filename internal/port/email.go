package port

import (
	"context"

	"voltscan/internal/domain"
)

// EmailSender defines the contract for sending review alerts.
type EmailSender interface {
	// SendReviewAlert notifies a reviewer that a bill exceeded the charge
	// reconciliation tolerance and needs manual attention.
	SendReviewAlert(ctx context.Context, doc *domain.BillDocument, result *domain.ValidationResult) error
}
