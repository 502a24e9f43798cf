package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/database"
	apperrors "github.com/evalworkshop/evalworkshop/api/internal/pkg/errors"
)

// RubricRepository handles rubric operations in PostgreSQL. Each workshop
// holds at most one rubric row.
type RubricRepository struct {
	db *database.PostgresDB
}

// NewRubricRepository creates a new rubric repository
func NewRubricRepository(db *database.PostgresDB) *RubricRepository {
	return &RubricRepository{db: db}
}

// Upsert creates the workshop rubric or replaces its question text
func (r *RubricRepository) Upsert(ctx context.Context, rubric *domain.Rubric) error {
	query := `
		INSERT INTO rubrics (id, workshop_id, question, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (workshop_id)
		DO UPDATE SET question = EXCLUDED.question, updated_at = NOW()
	`

	_, err := r.db.Pool.Exec(ctx, query,
		rubric.ID,
		rubric.WorkshopID,
		rubric.Question,
		rubric.CreatedBy,
		rubric.CreatedAt,
		rubric.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save rubric: %w", err)
	}

	return nil
}

// GetByWorkshop retrieves the rubric for a workshop
func (r *RubricRepository) GetByWorkshop(ctx context.Context, workshopID uuid.UUID) (*domain.Rubric, error) {
	query := `
		SELECT id, workshop_id, question, created_by, created_at, updated_at
		FROM rubrics
		WHERE workshop_id = $1
	`

	var rubric domain.Rubric
	err := r.db.Pool.QueryRow(ctx, query, workshopID).Scan(
		&rubric.ID,
		&rubric.WorkshopID,
		&rubric.Question,
		&rubric.CreatedBy,
		&rubric.CreatedAt,
		&rubric.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("rubric")
		}
		return nil, fmt.Errorf("failed to get rubric: %w", err)
	}

	return &rubric, nil
}

// Exists reports whether a workshop has a rubric
func (r *RubricRepository) Exists(ctx context.Context, workshopID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM rubrics WHERE workshop_id = $1)`, workshopID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check rubric existence: %w", err)
	}

	return exists, nil
}

// Delete removes the workshop rubric
func (r *RubricRepository) Delete(ctx context.Context, workshopID uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM rubrics WHERE workshop_id = $1`, workshopID)
	if err != nil {
		return fmt.Errorf("failed to delete rubric: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("rubric")
	}

	return nil
}
