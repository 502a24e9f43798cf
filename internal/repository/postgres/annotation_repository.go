package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/database"
)

// AnnotationRepository handles annotation operations in PostgreSQL.
// Ratings are stored as JSONB keyed by rubric question ID; legacy_rating
// keeps the pre-rubric scalar until migration.
type AnnotationRepository struct {
	db *database.PostgresDB
}

// NewAnnotationRepository creates a new annotation repository
func NewAnnotationRepository(db *database.PostgresDB) *AnnotationRepository {
	return &AnnotationRepository{db: db}
}

const annotationColumns = `id, workshop_id, trace_id, user_id, ratings, legacy_rating, comment, created_at, updated_at`

// Upsert saves an annotation, replacing any prior annotation by the same
// user on the same trace
func (r *AnnotationRepository) Upsert(ctx context.Context, annotation *domain.Annotation) error {
	query := `
		INSERT INTO annotations (id, workshop_id, trace_id, user_id, ratings, legacy_rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (workshop_id, trace_id, user_id)
		DO UPDATE SET ratings = EXCLUDED.ratings,
			legacy_rating = EXCLUDED.legacy_rating,
			comment = EXCLUDED.comment,
			updated_at = NOW()
	`

	_, err := r.db.Pool.Exec(ctx, query,
		annotation.ID,
		annotation.WorkshopID,
		annotation.TraceID,
		annotation.UserID,
		annotation.Ratings,
		annotation.LegacyRating,
		annotation.Comment,
		annotation.CreatedAt,
		annotation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save annotation: %w", err)
	}

	return nil
}

// ListByWorkshop retrieves all annotations for a workshop
func (r *AnnotationRepository) ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]domain.Annotation, error) {
	query := `SELECT ` + annotationColumns + ` FROM annotations WHERE workshop_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.Pool.Query(ctx, query, workshopID)
	if err != nil {
		return nil, fmt.Errorf("failed to list annotations: %w", err)
	}
	defer rows.Close()

	return scanAnnotations(rows)
}

// ListByUser retrieves a user's annotations within a workshop
func (r *AnnotationRepository) ListByUser(ctx context.Context, workshopID, userID uuid.UUID) ([]domain.Annotation, error) {
	query := `SELECT ` + annotationColumns + ` FROM annotations WHERE workshop_id = $1 AND user_id = $2 ORDER BY created_at ASC`

	rows, err := r.db.Pool.Query(ctx, query, workshopID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list annotations: %w", err)
	}
	defer rows.Close()

	return scanAnnotations(rows)
}

// ListByTrace retrieves all annotations on one trace
func (r *AnnotationRepository) ListByTrace(ctx context.Context, workshopID uuid.UUID, traceID string) ([]domain.Annotation, error) {
	query := `SELECT ` + annotationColumns + ` FROM annotations WHERE workshop_id = $1 AND trace_id = $2 ORDER BY created_at ASC`

	rows, err := r.db.Pool.Query(ctx, query, workshopID, traceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list annotations: %w", err)
	}
	defer rows.Close()

	return scanAnnotations(rows)
}

// Count returns the number of annotations in a workshop
func (r *AnnotationRepository) Count(ctx context.Context, workshopID uuid.UUID) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM annotations WHERE workshop_id = $1`, workshopID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count annotations: %w", err)
	}

	return count, nil
}

// DeleteByWorkshop removes every annotation in a workshop and reports how
// many rows went away
func (r *AnnotationRepository) DeleteByWorkshop(ctx context.Context, workshopID uuid.UUID) (int, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM annotations WHERE workshop_id = $1`, workshopID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear annotations: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanAnnotations(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]domain.Annotation, error) {
	var annotations []domain.Annotation
	for rows.Next() {
		var a domain.Annotation
		err := rows.Scan(
			&a.ID,
			&a.WorkshopID,
			&a.TraceID,
			&a.UserID,
			&a.Ratings,
			&a.LegacyRating,
			&a.Comment,
			&a.CreatedAt,
			&a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		annotations = append(annotations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate annotations: %w", err)
	}

	return annotations, nil
}
