package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/id"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/metrics"
)

// TraceService handles trace-pool reads and uploads. The pool itself is
// append-only; phase-aware visibility comes from the workshop's active sets.
type TraceService struct {
	workshops WorkshopRepository
	traces    TraceRepository
}

// NewTraceService creates a new trace service
func NewTraceService(workshops WorkshopRepository, traces TraceRepository) *TraceService {
	return &TraceService{workshops: workshops, traces: traces}
}

// Upload adds manually provided traces to the workshop pool
func (s *TraceService) Upload(ctx context.Context, workshopID uuid.UUID, inputs []domain.TraceInput) ([]domain.Trace, error) {
	if _, err := s.workshops.GetByID(ctx, workshopID); err != nil {
		return nil, err
	}

	now := time.Now()
	traces := make([]domain.Trace, len(inputs))
	for i, in := range inputs {
		traces[i] = domain.Trace{
			ID:         id.NewTraceID(),
			WorkshopID: workshopID,
			Input:      in.Input,
			Output:     in.Output,
			Context:    in.Context,
			Metadata:   in.Metadata,

			ExternalTraceID: in.ExternalTraceID,
			ExternalURL:     in.ExternalURL,
			ExternalHost:    in.ExternalHost,
			ExperimentID:    in.ExperimentID,

			CreatedAt: now,
		}
	}

	if err := s.traces.CreateBatch(ctx, workshopID, traces); err != nil {
		return nil, err
	}

	metrics.RecordTracesIngested(workshopID.String(), "upload", len(traces))
	return traces, nil
}

// Get retrieves a single trace
func (s *TraceService) Get(ctx context.Context, workshopID uuid.UUID, traceID string) (*domain.Trace, error) {
	return s.traces.GetByID(ctx, workshopID, traceID)
}

// List returns the full pool in chronological order
func (s *TraceService) List(ctx context.Context, workshopID uuid.UUID) ([]domain.Trace, error) {
	if _, err := s.workshops.GetByID(ctx, workshopID); err != nil {
		return nil, err
	}
	return s.traces.ListByWorkshop(ctx, workshopID)
}

// ListVisible returns the traces a participant should see in the workshop's
// current phase: the phase's active set in its stored order during discovery
// and annotation, the whole pool otherwise.
func (s *TraceService) ListVisible(ctx context.Context, workshopID uuid.UUID) ([]domain.Trace, error) {
	workshop, err := s.workshops.GetByID(ctx, workshopID)
	if err != nil {
		return nil, err
	}

	traces, err := s.traces.ListByWorkshop(ctx, workshopID)
	if err != nil {
		return nil, err
	}

	active, ok := workshop.ActiveTraceIDs(workshop.CurrentPhase)
	if !ok || len(active) == 0 {
		return traces, nil
	}

	byID := make(map[string]domain.Trace, len(traces))
	for _, t := range traces {
		byID[t.ID] = t
	}

	visible := make([]domain.Trace, 0, len(active))
	for _, tid := range active {
		if t, ok := byID[tid]; ok {
			visible = append(visible, t)
		}
	}
	return visible, nil
}
