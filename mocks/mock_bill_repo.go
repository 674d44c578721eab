package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"voltscan/internal/domain"
)

// MockBillRepo is a mock implementation of port.BillRepository.
type MockBillRepo struct {
	mock.Mock
}

func (m *MockBillRepo) Create(ctx context.Context, doc *domain.BillDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockBillRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.BillDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillDocument), args.Error(1)
}

func (m *MockBillRepo) List(ctx context.Context, offset, limit int) ([]domain.BillDocument, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.BillDocument), args.Int(1), args.Error(2)
}

func (m *MockBillRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.BillDocument, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BillDocument), args.Error(1)
}

func (m *MockBillRepo) UpdateResults(ctx context.Context, doc *domain.BillDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockBillRepo) Requeue(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
