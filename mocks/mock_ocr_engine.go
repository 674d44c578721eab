package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"voltscan/internal/domain"
	"voltscan/internal/port"
)

// MockOCREngine is a mock implementation of port.OCREngine.
type MockOCREngine struct {
	mock.Mock
}

func (m *MockOCREngine) Recognize(ctx context.Context, input port.RecognizeInput) (*domain.RecognizedText, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecognizedText), args.Error(1)
}

func (m *MockOCREngine) Name() string {
	args := m.Called()
	return args.String(0)
}
