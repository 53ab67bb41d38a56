package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"rabill/internal/domain"
)

// MockBOQItemRepo is a mock implementation of port.BOQItemRepository.
type MockBOQItemRepo struct {
	mock.Mock
}

func (m *MockBOQItemRepo) GetByID(ctx context.Context, projectID, itemID uuid.UUID) (*domain.BOQItem, error) {
	args := m.Called(ctx, projectID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BOQItem), args.Error(1)
}

func (m *MockBOQItemRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.BOQItem, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BOQItem), args.Error(1)
}
