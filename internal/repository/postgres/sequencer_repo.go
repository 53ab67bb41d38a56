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

type sequencerRepo struct {
	db *sqlx.DB
}

// NewSequencerRepo creates a PostgreSQL-backed RASequencer over the
// projects.next_ra counter.
func NewSequencerRepo(db *sqlx.DB) port.RASequencer {
	return &sequencerRepo{db: db}
}

// Next is an append-only counter: the increment and the read are one
// statement, so concurrent assignments serialize on the project row and
// every caller observes a distinct number. Numbers consumed by a commit
// that later fails to persist are left as gaps, never reassigned.
func (r *sequencerRepo) Next(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var assigned int64
	err := r.db.GetContext(ctx, &assigned,
		`UPDATE projects SET next_ra = next_ra + 1, updated_at = NOW()
		 WHERE id = $1
		 RETURNING next_ra - 1`,
		projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrProjectNotFound
		}
		return 0, fmt.Errorf("sequencerRepo.Next: %w", err)
	}
	return assigned, nil
}
