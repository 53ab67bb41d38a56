package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rabill/internal/domain"
)

// QuantityLedger is the single source of truth for billed-quantity balances.
// Balances are never re-derived by re-scanning invoice history.
type QuantityLedger interface {
	// Remaining returns the current balance and version of an item.
	// Returns domain.ErrUnknownItem if the item does not exist.
	Remaining(ctx context.Context, itemID uuid.UUID) (*domain.ItemBalance, error)

	// Reserve atomically increases billed quantity by qty, but only if the
	// item is still at expectedVersion and qty fits in the remaining
	// balance. It returns the new version on success. Failures:
	// domain.ErrUnknownItem, domain.ErrVersionConflict, or a
	// *domain.QuantityExceededError.
	Reserve(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal, expectedVersion int64) (int64, error)

	// Release decreases billed quantity by qty, flooring at zero. Used when
	// voiding an invoice or rolling back a partially reserved commit.
	Release(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal) error
}

// RASequencer assigns strictly increasing running-account numbers per
// project. Numbers are never reused, even after the invoice they were
// assigned to is voided.
type RASequencer interface {
	// Next atomically increments and returns the project's RA counter.
	Next(ctx context.Context, projectID uuid.UUID) (int64, error)
}
