package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"rabill/internal/domain"
	"rabill/internal/port"
)

type boqItemRepo struct {
	db *sqlx.DB
}

// NewBOQItemRepo creates a new PostgreSQL-backed BOQItemRepository.
func NewBOQItemRepo(db *sqlx.DB) port.BOQItemRepository {
	return &boqItemRepo{db: db}
}

func (r *boqItemRepo) GetByID(ctx context.Context, projectID, itemID uuid.UUID) (*domain.BOQItem, error) {
	var item domain.BOQItem
	err := r.db.GetContext(ctx, &item,
		"SELECT * FROM boq_items WHERE id = $1 AND project_id = $2", itemID, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("boqItemRepo.GetByID: %w", err)
	}
	return &item, nil
}

func (r *boqItemRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.BOQItem, error) {
	var items []domain.BOQItem
	err := r.db.SelectContext(ctx, &items,
		"SELECT * FROM boq_items WHERE project_id = $1 ORDER BY seq", projectID)
	if err != nil {
		return nil, fmt.Errorf("boqItemRepo.ListByProject: %w", err)
	}
	return items, nil
}
