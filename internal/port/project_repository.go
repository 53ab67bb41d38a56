package port

import (
	"context"

	"github.com/google/uuid"

	"rabill/internal/domain"
)

// ProjectRepository persists projects and their imported BOQ catalogs.
// Create stores the project together with its catalog items in one
// transaction; the catalog is immutable after that.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project, items []domain.BOQItem) error
	GetByID(ctx context.Context, projectID uuid.UUID) (*domain.Project, error)
	List(ctx context.Context, offset, limit int) ([]domain.Project, int, error)
}
