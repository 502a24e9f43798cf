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

// TraceRepository handles trace-pool data operations in PostgreSQL.
// Traces are append-only; the seq column is a per-workshop monotonic
// counter that fixes the pool's chronological order.
type TraceRepository struct {
	db *database.PostgresDB
}

// NewTraceRepository creates a new trace repository
func NewTraceRepository(db *database.PostgresDB) *TraceRepository {
	return &TraceRepository{db: db}
}

const traceColumns = `id, workshop_id, input, output, context, metadata,
		external_trace_id, external_url, external_host, experiment_id, seq, created_at`

// CreateBatch inserts traces in a single transaction, assigning seq values
// after the current pool maximum
func (r *TraceRepository) CreateBatch(ctx context.Context, workshopID uuid.UUID, traces []domain.Trace) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var maxSeq int64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM traces WHERE workshop_id = $1`, workshopID).Scan(&maxSeq)
	if err != nil {
		return fmt.Errorf("failed to read trace sequence: %w", err)
	}

	query := `
		INSERT INTO traces (id, workshop_id, input, output, context, metadata,
			external_trace_id, external_url, external_host, experiment_id, seq, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	for i := range traces {
		t := &traces[i]
		t.Seq = maxSeq + int64(i) + 1
		_, err := tx.Exec(ctx, query,
			t.ID,
			workshopID,
			t.Input,
			t.Output,
			t.Context,
			t.Metadata,
			t.ExternalTraceID,
			t.ExternalURL,
			t.ExternalHost,
			t.ExperimentID,
			t.Seq,
			t.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert trace: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit traces: %w", err)
	}

	return nil
}

// GetByID retrieves a trace by ID within a workshop
func (r *TraceRepository) GetByID(ctx context.Context, workshopID uuid.UUID, traceID string) (*domain.Trace, error) {
	query := `SELECT ` + traceColumns + ` FROM traces WHERE workshop_id = $1 AND id = $2`

	var t domain.Trace
	err := r.db.Pool.QueryRow(ctx, query, workshopID, traceID).Scan(
		&t.ID,
		&t.WorkshopID,
		&t.Input,
		&t.Output,
		&t.Context,
		&t.Metadata,
		&t.ExternalTraceID,
		&t.ExternalURL,
		&t.ExternalHost,
		&t.ExperimentID,
		&t.Seq,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("trace")
		}
		return nil, fmt.Errorf("failed to get trace: %w", err)
	}

	return &t, nil
}

// ListByWorkshop retrieves all traces for a workshop in chronological order
func (r *TraceRepository) ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]domain.Trace, error) {
	query := `SELECT ` + traceColumns + ` FROM traces WHERE workshop_id = $1 ORDER BY seq ASC`

	rows, err := r.db.Pool.Query(ctx, query, workshopID)
	if err != nil {
		return nil, fmt.Errorf("failed to list traces: %w", err)
	}
	defer rows.Close()

	var traces []domain.Trace
	for rows.Next() {
		var t domain.Trace
		err := rows.Scan(
			&t.ID,
			&t.WorkshopID,
			&t.Input,
			&t.Output,
			&t.Context,
			&t.Metadata,
			&t.ExternalTraceID,
			&t.ExternalURL,
			&t.ExternalHost,
			&t.ExperimentID,
			&t.Seq,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trace: %w", err)
		}
		traces = append(traces, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate traces: %w", err)
	}

	return traces, nil
}

// Count returns the number of traces in a workshop's pool
func (r *TraceRepository) Count(ctx context.Context, workshopID uuid.UUID) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM traces WHERE workshop_id = $1`, workshopID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count traces: %w", err)
	}

	return count, nil
}

// ExistingExternalIDs returns which of the given external trace IDs are
// already present in the workshop, used to skip duplicates during intake
func (r *TraceRepository) ExistingExternalIDs(ctx context.Context, workshopID uuid.UUID, externalIDs []string) (map[string]bool, error) {
	if len(externalIDs) == 0 {
		return map[string]bool{}, nil
	}

	rows, err := r.db.Pool.Query(ctx,
		`SELECT external_trace_id FROM traces WHERE workshop_id = $1 AND external_trace_id = ANY($2)`,
		workshopID, externalIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to check external trace IDs: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan external trace ID: %w", err)
		}
		existing[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate external trace IDs: %w", err)
	}

	return existing, nil
}
