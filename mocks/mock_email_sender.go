package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"voltscan/internal/domain"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendReviewAlert(ctx context.Context, doc *domain.BillDocument, result *domain.ValidationResult) error {
	args := m.Called(ctx, doc, result)
	return args.Error(0)
}
