package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"voltscan/internal/domain"
	"voltscan/internal/port"
)

// MockRecognizer is a mock implementation of service.Recognizer.
type MockRecognizer struct {
	mock.Mock
}

func (m *MockRecognizer) Recognize(ctx context.Context, input port.RecognizeInput) (*domain.RecognizedText, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecognizedText), args.Error(1)
}
