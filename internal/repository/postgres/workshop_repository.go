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

// WorkshopRepository handles workshop data operations in PostgreSQL
type WorkshopRepository struct {
	db *database.PostgresDB
}

// NewWorkshopRepository creates a new workshop repository
func NewWorkshopRepository(db *database.PostgresDB) *WorkshopRepository {
	return &WorkshopRepository{db: db}
}

const workshopColumns = `id, name, description, facilitator_id, status, current_phase,
		completed_phases, discovery_started, annotation_started,
		active_discovery_trace_ids, active_annotation_trace_ids,
		version, created_at, updated_at`

// Create creates a new workshop
func (r *WorkshopRepository) Create(ctx context.Context, workshop *domain.Workshop) error {
	query := `
		INSERT INTO workshops (id, name, description, facilitator_id, status, current_phase,
			completed_phases, discovery_started, annotation_started,
			active_discovery_trace_ids, active_annotation_trace_ids,
			version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		workshop.ID,
		workshop.Name,
		workshop.Description,
		workshop.FacilitatorID,
		workshop.Status,
		workshop.CurrentPhase,
		phasesToStrings(workshop.CompletedPhases),
		workshop.DiscoveryStarted,
		workshop.AnnotationStarted,
		workshop.ActiveDiscoveryTraceIDs,
		workshop.ActiveAnnotationTraceIDs,
		workshop.Version,
		workshop.CreatedAt,
		workshop.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create workshop: %w", err)
	}

	return nil
}

// GetByID retrieves a workshop by ID
func (r *WorkshopRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workshop, error) {
	query := `SELECT ` + workshopColumns + ` FROM workshops WHERE id = $1`

	row := r.db.Pool.QueryRow(ctx, query, id)
	workshop, err := scanWorkshop(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("workshop")
		}
		return nil, fmt.Errorf("failed to get workshop: %w", err)
	}

	return workshop, nil
}

// List retrieves workshops ordered by creation time, newest first
func (r *WorkshopRepository) List(ctx context.Context, limit, offset int) ([]domain.Workshop, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM workshops`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count workshops: %w", err)
	}

	query := `SELECT ` + workshopColumns + ` FROM workshops ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list workshops: %w", err)
	}
	defer rows.Close()

	var workshops []domain.Workshop
	for rows.Next() {
		w, err := scanWorkshop(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan workshop: %w", err)
		}
		workshops = append(workshops, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate workshops: %w", err)
	}

	return workshops, total, nil
}

// Update updates a workshop's name, description and status
func (r *WorkshopRepository) Update(ctx context.Context, workshop *domain.Workshop) error {
	query := `
		UPDATE workshops
		SET name = $2, description = $3, status = $4, facilitator_id = $5, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		workshop.ID,
		workshop.Name,
		workshop.Description,
		workshop.Status,
		workshop.FacilitatorID,
	)
	if err != nil {
		return fmt.Errorf("failed to update workshop: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("workshop")
	}

	return nil
}

// UpdateState persists the workshop's phase state guarded by its version.
// The write only applies when the stored version matches the version the
// state was read at; a mismatch means another writer got there first and
// the caller must re-read and retry.
func (r *WorkshopRepository) UpdateState(ctx context.Context, workshop *domain.Workshop) error {
	query := `
		UPDATE workshops
		SET current_phase = $3,
			completed_phases = $4,
			discovery_started = $5,
			annotation_started = $6,
			active_discovery_trace_ids = $7,
			active_annotation_trace_ids = $8,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND version = $2
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		workshop.ID,
		workshop.Version,
		workshop.CurrentPhase,
		phasesToStrings(workshop.CompletedPhases),
		workshop.DiscoveryStarted,
		workshop.AnnotationStarted,
		workshop.ActiveDiscoveryTraceIDs,
		workshop.ActiveAnnotationTraceIDs,
	)
	if err != nil {
		return fmt.Errorf("failed to update workshop state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing workshop from a stale version
		var exists bool
		if err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM workshops WHERE id = $1)`, workshop.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check workshop existence: %w", err)
		}
		if !exists {
			return apperrors.NotFound("workshop")
		}
		return apperrors.Conflict("workshop was modified concurrently")
	}

	workshop.Version++
	return nil
}

// Delete removes a workshop and its dependent rows
func (r *WorkshopRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM workshops WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete workshop: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("workshop")
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkshop(row rowScanner) (*domain.Workshop, error) {
	var w domain.Workshop
	var completed []string

	err := row.Scan(
		&w.ID,
		&w.Name,
		&w.Description,
		&w.FacilitatorID,
		&w.Status,
		&w.CurrentPhase,
		&completed,
		&w.DiscoveryStarted,
		&w.AnnotationStarted,
		&w.ActiveDiscoveryTraceIDs,
		&w.ActiveAnnotationTraceIDs,
		&w.Version,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	w.CompletedPhases = stringsToPhases(completed)
	return &w, nil
}

func phasesToStrings(phases []domain.Phase) []string {
	out := make([]string, len(phases))
	for i, p := range phases {
		out[i] = string(p)
	}
	return out
}

func stringsToPhases(s []string) []domain.Phase {
	if len(s) == 0 {
		return nil
	}
	out := make([]domain.Phase, len(s))
	for i, v := range s {
		out[i] = domain.Phase(v)
	}
	return out
}
