package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"voltscan/internal/domain"
	"voltscan/internal/service"
)

// MockBillService is a mock implementation of service.BillService.
type MockBillService struct {
	mock.Mock
}

func (m *MockBillService) CreateFromUpload(ctx context.Context, input service.UploadBillInput) (*domain.BillDocument, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillDocument), args.Error(1)
}

func (m *MockBillService) GetByID(ctx context.Context, id uuid.UUID) (*domain.BillDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillDocument), args.Error(1)
}

func (m *MockBillService) List(ctx context.Context, offset, limit int) ([]domain.BillDocument, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.BillDocument), args.Int(1), args.Error(2)
}

func (m *MockBillService) Retry(ctx context.Context, id uuid.UUID) (*domain.BillDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillDocument), args.Error(1)
}

func (m *MockBillService) ProcessBill(ctx context.Context, doc *domain.BillDocument) (*domain.BillDocument, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillDocument), args.Error(1)
}
