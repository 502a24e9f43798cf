package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
)

// EventRepository handles the append-only workshop event log. It runs on a
// separate sqlx connection with a small pool budget so bursty event writes
// cannot starve the primary pgx pool.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Append writes one event to the log
func (r *EventRepository) Append(ctx context.Context, input *domain.WorkshopEventInput) (*domain.WorkshopEvent, error) {
	id := uuid.New()
	now := time.Now()

	detailsJSON, err := json.Marshal(input.Details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	query := `
		INSERT INTO workshop_events (id, workshop_id, event_type, actor_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = r.db.ExecContext(ctx, query,
		id, input.WorkshopID, input.Type, input.ActorID, detailsJSON, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append workshop event: %w", err)
	}

	return &domain.WorkshopEvent{
		ID:         id,
		WorkshopID: input.WorkshopID,
		Type:       input.Type,
		ActorID:    input.ActorID,
		Details:    input.Details,
		CreatedAt:  now,
	}, nil
}

// ListByWorkshop retrieves a workshop's events in chronological order,
// capped at limit entries from the end of the log
func (r *EventRepository) ListByWorkshop(ctx context.Context, workshopID uuid.UUID, limit int) ([]domain.WorkshopEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, workshop_id, event_type, actor_id, details, created_at
		FROM (
			SELECT id, workshop_id, event_type, actor_id, details, created_at
			FROM workshop_events
			WHERE workshop_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, workshopID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list workshop events: %w", err)
	}
	defer rows.Close()

	var events []domain.WorkshopEvent
	for rows.Next() {
		var e domain.WorkshopEvent
		var detailsJSON []byte
		var actorID sql.Null[uuid.UUID]

		err := rows.Scan(&e.ID, &e.WorkshopID, &e.Type, &actorID, &detailsJSON, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workshop event: %w", err)
		}
		if actorID.Valid {
			e.ActorID = &actorID.V
		}
		if len(detailsJSON) > 0 {
			json.Unmarshal(detailsJSON, &e.Details)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workshop events: %w", err)
	}

	return events, nil
}

// CountByType returns how many events of each type a workshop has logged
func (r *EventRepository) CountByType(ctx context.Context, workshopID uuid.UUID) (map[domain.EventType]int, error) {
	query := `
		SELECT event_type, COUNT(*)
		FROM workshop_events
		WHERE workshop_id = $1
		GROUP BY event_type`

	rows, err := r.db.QueryContext(ctx, query, workshopID)
	if err != nil {
		return nil, fmt.Errorf("failed to count workshop events: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.EventType]int)
	for rows.Next() {
		var t domain.EventType
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[t] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event counts: %w", err)
	}

	return counts, nil
}
