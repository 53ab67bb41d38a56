package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"rabill/internal/domain"
	"rabill/internal/port"
)

type invoiceRepo struct {
	db *sqlx.DB
}

// NewInvoiceRepo creates a new PostgreSQL-backed InvoiceRepository.
func NewInvoiceRepo(db *sqlx.DB) port.InvoiceRepository {
	return &invoiceRepo{db: db}
}

func (r *invoiceRepo) CreateCommitted(ctx context.Context, invoice *domain.Invoice) error {
	invoice.CreatedAt = time.Now().UTC()
	invoice.Status = domain.StatusCommitted

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("invoiceRepo.CreateCommitted begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO invoices (
			id, project_id, kind, ra_number, status,
			subtotal, cgst, sgst, igst, total_amount, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		invoice.ID, invoice.ProjectID, invoice.Kind, invoice.RANumber, invoice.Status,
		invoice.Subtotal, invoice.CGST, invoice.SGST, invoice.IGST,
		invoice.TotalAmount, invoice.CreatedAt)
	if err != nil {
		return fmt.Errorf("invoiceRepo.CreateCommitted: %w", err)
	}

	for i := range invoice.LineItems {
		line := &invoice.LineItems[i]
		_, err = tx.ExecContext(ctx,
			`INSERT INTO invoice_line_items (
				id, invoice_id, boq_item_id, seq, description,
				unit, quantity, rate, amount
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			line.ID, line.InvoiceID, line.BOQItemID, line.Seq, line.Description,
			line.Unit, line.Quantity, line.Rate, line.Amount)
		if err != nil {
			return fmt.Errorf("invoiceRepo.CreateCommitted line %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("invoiceRepo.CreateCommitted commit: %w", err)
	}
	return nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, invoiceID uuid.UUID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := r.db.GetContext(ctx, &invoice,
		"SELECT * FROM invoices WHERE id = $1", invoiceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}

	err = r.db.SelectContext(ctx, &invoice.LineItems,
		"SELECT * FROM invoice_line_items WHERE invoice_id = $1 ORDER BY seq", invoiceID)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.GetByID lines: %w", err)
	}
	return &invoice, nil
}

func (r *invoiceRepo) ListByProject(ctx context.Context, projectID uuid.UUID, offset, limit int) ([]domain.Invoice, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM invoices WHERE project_id = $1", projectID)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.ListByProject count: %w", err)
	}

	var invoices []domain.Invoice
	err = r.db.SelectContext(ctx, &invoices,
		`SELECT * FROM invoices WHERE project_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		projectID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.ListByProject: %w", err)
	}
	return invoices, total, nil
}

func (r *invoiceRepo) MarkVoid(ctx context.Context, invoiceID uuid.UUID) (*domain.Invoice, bool, error) {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET status = $1, voided_at = $2
		 WHERE id = $3 AND status = $4`,
		domain.StatusVoid, now, invoiceID, domain.StatusCommitted)
	if err != nil {
		return nil, false, fmt.Errorf("invoiceRepo.MarkVoid: %w", err)
	}

	rows, _ := result.RowsAffected()
	invoice, err := r.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, false, err
	}
	if rows == 0 {
		// Already void is idempotent; committed was the only other state
		// the guard could have matched.
		if invoice.Status == domain.StatusVoid {
			return invoice, false, nil
		}
		return nil, false, domain.ErrInvoiceNotVoidable
	}
	return invoice, true, nil
}

func (r *invoiceRepo) ListRANumbers(ctx context.Context, projectID uuid.UUID) ([]domain.RAEntry, error) {
	var entries []domain.RAEntry
	err := r.db.SelectContext(ctx, &entries,
		`SELECT id AS invoice_id, ra_number, status, created_at AS issued_at
		 FROM invoices
		 WHERE project_id = $1 AND ra_number IS NOT NULL
		 ORDER BY ra_number`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.ListRANumbers: %w", err)
	}
	return entries, nil
}
