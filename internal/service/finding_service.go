package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
)

// FindingService handles discovery-phase finding submissions
type FindingService struct {
	workshops WorkshopRepository
	traces    TraceRepository
	findings  FindingRepository
	events    EventRepository
	realtime  *RealtimeService
}

// NewFindingService creates a new finding service
func NewFindingService(workshops WorkshopRepository, traces TraceRepository, findings FindingRepository, events EventRepository, realtime *RealtimeService) *FindingService {
	return &FindingService{
		workshops: workshops,
		traces:    traces,
		findings:  findings,
		events:    events,
		realtime:  realtime,
	}
}

// Save records a finding, replacing the user's prior finding on the trace
func (s *FindingService) Save(ctx context.Context, workshopID uuid.UUID, input *domain.FindingInput) (*domain.Finding, error) {
	if _, err := s.workshops.GetByID(ctx, workshopID); err != nil {
		return nil, err
	}
	if _, err := s.traces.GetByID(ctx, workshopID, input.TraceID); err != nil {
		return nil, err
	}

	finding := &domain.Finding{
		ID:         uuid.New(),
		WorkshopID: workshopID,
		TraceID:    input.TraceID,
		UserID:     input.UserID,
		Insight:    input.Insight,
		CreatedAt:  time.Now(),
	}

	if err := s.findings.Upsert(ctx, finding); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.Append(ctx, &domain.WorkshopEventInput{
			WorkshopID: workshopID,
			Type:       domain.EventFindingSaved,
			ActorID:    &input.UserID,
			Details:    map[string]any{"traceId": input.TraceID},
		})
	}
	if s.realtime != nil {
		s.realtime.Publish(ctx, workshopID, string(domain.EventFindingSaved), map[string]any{
			"traceId": input.TraceID,
			"userId":  input.UserID.String(),
		})
	}

	return finding, nil
}

// List returns findings scoped by the caller's permissions: facilitators
// see everything, contributors see their own
func (s *FindingService) List(ctx context.Context, workshopID, userID uuid.UUID, perms domain.Permissions) ([]domain.Finding, error) {
	if _, err := s.workshops.GetByID(ctx, workshopID); err != nil {
		return nil, err
	}
	if perms.CanViewAllFindings {
		return s.findings.ListByWorkshop(ctx, workshopID)
	}
	return s.findings.ListByUser(ctx, workshopID, userID)
}

// Clear wipes every finding in the workshop and returns how many were
// removed. Intended for facilitators restarting discovery.
func (s *FindingService) Clear(ctx context.Context, workshopID uuid.UUID, actorID uuid.UUID) (int, error) {
	if _, err := s.workshops.GetByID(ctx, workshopID); err != nil {
		return 0, err
	}

	removed, err := s.findings.DeleteByWorkshop(ctx, workshopID)
	if err != nil {
		return 0, err
	}

	if s.events != nil {
		s.events.Append(ctx, &domain.WorkshopEventInput{
			WorkshopID: workshopID,
			Type:       domain.EventFindingsCleared,
			ActorID:    &actorID,
			Details:    map[string]any{"removed": removed},
		})
	}
	if s.realtime != nil {
		s.realtime.Publish(ctx, workshopID, string(domain.EventFindingsCleared), map[string]any{
			"removed": removed,
		})
	}

	return removed, nil
}
