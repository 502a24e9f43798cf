package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/database"
)

// FindingRepository handles discovery-phase finding operations in PostgreSQL
type FindingRepository struct {
	db *database.PostgresDB
}

// NewFindingRepository creates a new finding repository
func NewFindingRepository(db *database.PostgresDB) *FindingRepository {
	return &FindingRepository{db: db}
}

// Upsert saves a finding, replacing any prior finding by the same user on
// the same trace
func (r *FindingRepository) Upsert(ctx context.Context, finding *domain.Finding) error {
	query := `
		INSERT INTO findings (id, workshop_id, trace_id, user_id, insight, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (workshop_id, trace_id, user_id)
		DO UPDATE SET insight = EXCLUDED.insight
	`

	_, err := r.db.Pool.Exec(ctx, query,
		finding.ID,
		finding.WorkshopID,
		finding.TraceID,
		finding.UserID,
		finding.Insight,
		finding.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save finding: %w", err)
	}

	return nil
}

// ListByWorkshop retrieves all findings for a workshop
func (r *FindingRepository) ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]domain.Finding, error) {
	query := `
		SELECT id, workshop_id, trace_id, user_id, insight, created_at
		FROM findings
		WHERE workshop_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, workshopID)
	if err != nil {
		return nil, fmt.Errorf("failed to list findings: %w", err)
	}
	defer rows.Close()

	return scanFindings(rows)
}

// ListByUser retrieves a user's findings within a workshop
func (r *FindingRepository) ListByUser(ctx context.Context, workshopID, userID uuid.UUID) ([]domain.Finding, error) {
	query := `
		SELECT id, workshop_id, trace_id, user_id, insight, created_at
		FROM findings
		WHERE workshop_id = $1 AND user_id = $2
		ORDER BY created_at ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, workshopID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list findings: %w", err)
	}
	defer rows.Close()

	return scanFindings(rows)
}

// Count returns the number of findings in a workshop
func (r *FindingRepository) Count(ctx context.Context, workshopID uuid.UUID) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM findings WHERE workshop_id = $1`, workshopID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count findings: %w", err)
	}

	return count, nil
}

// DeleteByWorkshop removes every finding in a workshop and reports how many
// rows went away
func (r *FindingRepository) DeleteByWorkshop(ctx context.Context, workshopID uuid.UUID) (int, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM findings WHERE workshop_id = $1`, workshopID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear findings: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanFindings(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]domain.Finding, error) {
	var findings []domain.Finding
	for rows.Next() {
		var f domain.Finding
		err := rows.Scan(&f.ID, &f.WorkshopID, &f.TraceID, &f.UserID, &f.Insight, &f.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		findings = append(findings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate findings: %w", err)
	}

	return findings, nil
}
