package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"rabill/internal/domain"
)

// MockQuantityLedger is a mock implementation of port.QuantityLedger.
type MockQuantityLedger struct {
	mock.Mock
}

func (m *MockQuantityLedger) Remaining(ctx context.Context, itemID uuid.UUID) (*domain.ItemBalance, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ItemBalance), args.Error(1)
}

func (m *MockQuantityLedger) Reserve(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal, expectedVersion int64) (int64, error) {
	args := m.Called(ctx, itemID, qty, expectedVersion)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuantityLedger) Release(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal) error {
	args := m.Called(ctx, itemID, qty)
	return args.Error(0)
}

// MockRASequencer is a mock implementation of port.RASequencer.
type MockRASequencer struct {
	mock.Mock
}

func (m *MockRASequencer) Next(ctx context.Context, projectID uuid.UUID) (int64, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(int64), args.Error(1)
}
