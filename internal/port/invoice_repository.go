package port

import (
	"context"

	"github.com/google/uuid"

	"rabill/internal/domain"
)

// InvoiceRepository persists committed invoices. Drafts never reach this
// interface; line items and amounts are immutable once stored.
type InvoiceRepository interface {
	// CreateCommitted stores an invoice and its line items atomically.
	CreateCommitted(ctx context.Context, invoice *domain.Invoice) error
	GetByID(ctx context.Context, invoiceID uuid.UUID) (*domain.Invoice, error)
	ListByProject(ctx context.Context, projectID uuid.UUID, offset, limit int) ([]domain.Invoice, int, error)

	// MarkVoid transitions a committed invoice to void and reports whether
	// this call performed the transition. Voiding an already void invoice
	// is a no-op (false); any other status returns
	// domain.ErrInvoiceNotVoidable.
	MarkVoid(ctx context.Context, invoiceID uuid.UUID) (*domain.Invoice, bool, error)

	// ListRANumbers returns every RA number issued for a project in
	// ascending order, voided invoices included.
	ListRANumbers(ctx context.Context, projectID uuid.UUID) ([]domain.RAEntry, error)
}
