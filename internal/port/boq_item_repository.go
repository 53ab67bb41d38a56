package port

import (
	"context"

	"github.com/google/uuid"

	"rabill/internal/domain"
)

// BOQItemRepository is the read-mostly catalog of authorized line items.
// Authorized quantity and rate never change after import; only the ledger
// touches billed_qty and version.
type BOQItemRepository interface {
	GetByID(ctx context.Context, projectID, itemID uuid.UUID) (*domain.BOQItem, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.BOQItem, error)
}
