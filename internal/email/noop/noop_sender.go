package noop

import (
	"context"
	"log"

	"voltscan/internal/domain"
	"voltscan/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a no-op EmailSender that logs review alerts to stdout.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) SendReviewAlert(_ context.Context, doc *domain.BillDocument, result *domain.ValidationResult) error {
	log.Printf("[NOOP EMAIL] Review alert for bill %s (%s): variance %.2f%%, confidence %.2f",
		doc.ID, doc.FileName, result.TotalVariance*100, result.Confidence)
	return nil
}
