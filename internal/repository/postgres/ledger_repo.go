package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"rabill/internal/domain"
	"rabill/internal/port"
)

type ledgerRepo struct {
	db *sqlx.DB
}

// NewLedgerRepo creates a PostgreSQL-backed QuantityLedger over the
// boq_items billed_qty/version columns.
func NewLedgerRepo(db *sqlx.DB) port.QuantityLedger {
	return &ledgerRepo{db: db}
}

func (r *ledgerRepo) Remaining(ctx context.Context, itemID uuid.UUID) (*domain.ItemBalance, error) {
	var row struct {
		AuthorizedQty decimal.Decimal `db:"authorized_qty"`
		BilledQty     decimal.Decimal `db:"billed_qty"`
		Version       int64           `db:"version"`
	}
	err := r.db.GetContext(ctx, &row,
		"SELECT authorized_qty, billed_qty, version FROM boq_items WHERE id = $1", itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUnknownItem
		}
		return nil, fmt.Errorf("ledgerRepo.Remaining: %w", err)
	}
	return &domain.ItemBalance{
		ItemID:     itemID,
		Authorized: row.AuthorizedQty,
		Billed:     row.BilledQty,
		Remaining:  row.AuthorizedQty.Sub(row.BilledQty),
		Version:    row.Version,
	}, nil
}

// Reserve is a single conditional update: the quantity check, the version
// check and the increment happen in one statement, so two concurrent
// reservations on the same item serialize on the row and can never commit
// a combined total above the authorization.
func (r *ledgerRepo) Reserve(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal, expectedVersion int64) (int64, error) {
	var newVersion int64
	err := r.db.GetContext(ctx, &newVersion,
		`UPDATE boq_items
		 SET billed_qty = billed_qty + $2, version = version + 1
		 WHERE id = $1 AND version = $3 AND billed_qty + $2 <= authorized_qty
		 RETURNING version`,
		itemID, qty, expectedVersion)
	if err == nil {
		return newVersion, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("ledgerRepo.Reserve: %w", err)
	}

	// The guarded update matched nothing. Re-read to classify the failure.
	var row struct {
		Description   string          `db:"description"`
		AuthorizedQty decimal.Decimal `db:"authorized_qty"`
		BilledQty     decimal.Decimal `db:"billed_qty"`
		Version       int64           `db:"version"`
	}
	err = r.db.GetContext(ctx, &row,
		"SELECT description, authorized_qty, billed_qty, version FROM boq_items WHERE id = $1", itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrUnknownItem
		}
		return 0, fmt.Errorf("ledgerRepo.Reserve reread: %w", err)
	}
	if row.Version != expectedVersion {
		return 0, domain.ErrVersionConflict
	}
	return 0, &domain.QuantityExceededError{
		ItemID:      itemID,
		Description: row.Description,
		Requested:   qty,
		Remaining:   row.AuthorizedQty.Sub(row.BilledQty),
	}
}

func (r *ledgerRepo) Release(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE boq_items
		 SET billed_qty = GREATEST(billed_qty - $2, 0), version = version + 1
		 WHERE id = $1`,
		itemID, qty)
	if err != nil {
		return fmt.Errorf("ledgerRepo.Release: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrUnknownItem
	}
	return nil
}
