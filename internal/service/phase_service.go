package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	apperrors "github.com/evalworkshop/evalworkshop/api/internal/pkg/errors"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/lock"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/logger"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/metrics"
)

// DefaultAnnotationLimit is the annotation sample size when the caller
// does not specify one.
const DefaultAnnotationLimit = 10

// AllTracesLimit is the sentinel meaning "use the whole pool".
const AllTracesLimit = -1

// PhaseService is the workshop phase controller. Every operation is a
// read-modify-write over one workshop's state; a per-workshop lock
// serializes writers within this process, and the repository's versioned
// update catches writers outside it.
type PhaseService struct {
	workshops   WorkshopRepository
	traces      TraceRepository
	findings    FindingRepository
	rubrics     RubricRepository
	annotations AnnotationRepository
	events      EventRepository
	realtime    *RealtimeService
	locks       *lock.Keyed

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewPhaseService creates a new phase service. A zero seed draws one from
// the clock; tests pass a fixed seed for reproducible sampling.
func NewPhaseService(
	workshops WorkshopRepository,
	traces TraceRepository,
	findings FindingRepository,
	rubrics RubricRepository,
	annotations AnnotationRepository,
	events EventRepository,
	realtime *RealtimeService,
	seed int64,
) *PhaseService {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &PhaseService{
		workshops:   workshops,
		traces:      traces,
		findings:    findings,
		rubrics:     rubrics,
		annotations: annotations,
		events:      events,
		realtime:    realtime,
		locks:       lock.NewKeyed(),
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// Advance moves the workshop to the target phase after checking the
// transition table. Re-entering a reentrant phase is a success that reports
// alreadyInPhase and writes nothing.
func (s *PhaseService) Advance(ctx context.Context, workshopID uuid.UUID, target domain.Phase, actorID *uuid.UUID) (*domain.AdvanceResult, error) {
	var result *domain.AdvanceResult

	err := s.locks.Do(workshopID.String(), func() error {
		workshop, err := s.workshops.GetByID(ctx, workshopID)
		if err != nil {
			return err
		}

		counts, err := s.loadCounts(ctx, workshopID)
		if err != nil {
			return err
		}

		from := workshop.CurrentPhase
		decision := domain.ValidateTransition(from, target, counts)

		if decision.AlreadyInPhase {
			metrics.RecordPhaseTransition(from.String(), target.String(), "noop")
			result = &domain.AdvanceResult{Phase: target, AlreadyInPhase: true}
			return nil
		}

		if !decision.Allowed {
			metrics.RecordPhaseTransition(from.String(), target.String(), "rejected")
			if decision.Unmet != domain.RequireNone {
				return apperrors.Precondition(decision.Reason)
			}
			return apperrors.BadRequest(decision.Reason)
		}

		workshop.CurrentPhase = target
		if err := s.workshops.UpdateState(ctx, workshop); err != nil {
			return err
		}

		metrics.RecordPhaseTransition(from.String(), target.String(), "applied")
		logger.Info("workshop phase advanced",
			zap.String("workshop_id", workshopID.String()),
			zap.String("from", from.String()),
			zap.String("to", target.String()))

		s.publish(ctx, workshopID, domain.EventPhaseChanged, actorID, map[string]any{
			"from": from.String(),
			"to":   target.String(),
		})

		result = &domain.AdvanceResult{Phase: target}
		switch target {
		case domain.PhaseDiscovery:
			result.TracesAvailable = counts.Traces
		case domain.PhaseRubric:
			result.FindingsCollected = counts.Findings
		case domain.PhaseResults:
			result.AnnotationsCollected = counts.Annotations
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BeginDiscovery enters the discovery phase with a chronological-prefix
// active set. A limit that is unset, non-positive, or at least the pool
// size selects the whole pool. The selection is deterministic, so a retried
// start with the same limit lands on the same set.
func (s *PhaseService) BeginDiscovery(ctx context.Context, workshopID uuid.UUID, limit int, actorID *uuid.UUID) (*domain.DiscoveryStartResult, error) {
	var result *domain.DiscoveryStartResult

	err := s.locks.Do(workshopID.String(), func() error {
		workshop, err := s.workshops.GetByID(ctx, workshopID)
		if err != nil {
			return err
		}

		traces, err := s.traces.ListByWorkshop(ctx, workshopID)
		if err != nil {
			return err
		}
		if len(traces) == 0 {
			return apperrors.Precondition("cannot start discovery: no traces available, complete trace intake first")
		}

		selection := limit
		if selection <= 0 || selection > len(traces) {
			selection = len(traces)
		}
		ids := chronologicalPrefix(traces, selection)

		workshop.ActiveDiscoveryTraceIDs = ids
		workshop.DiscoveryStarted = true
		workshop.CurrentPhase = domain.PhaseDiscovery
		if err := s.workshops.UpdateState(ctx, workshop); err != nil {
			return err
		}

		metrics.SetActiveSetSize(workshopID.String(), domain.PhaseDiscovery.String(), len(ids))
		s.publish(ctx, workshopID, domain.EventPhaseChanged, actorID, map[string]any{
			"to":         domain.PhaseDiscovery.String(),
			"tracesUsed": len(ids),
		})

		result = &domain.DiscoveryStartResult{
			TotalTraces: len(traces),
			TracesUsed:  len(ids),
			Limit:       limit,
			Phase:       domain.PhaseDiscovery,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BeginAnnotation enters the annotation phase with a randomly sampled
// active set. A limit of AllTracesLimit or at least the pool size uses the
// whole pool in chronological order; an unset limit defaults to
// DefaultAnnotationLimit. Any other negative limit is rejected.
func (s *PhaseService) BeginAnnotation(ctx context.Context, workshopID uuid.UUID, limit int, actorID *uuid.UUID) (*domain.AnnotationStartResult, error) {
	if limit < AllTracesLimit {
		return nil, apperrors.BadRequest("traceLimit must be -1 for the whole pool or a positive sample size")
	}

	var result *domain.AnnotationStartResult

	err := s.locks.Do(workshopID.String(), func() error {
		workshop, err := s.workshops.GetByID(ctx, workshopID)
		if err != nil {
			return err
		}

		hasRubric, err := s.rubrics.Exists(ctx, workshopID)
		if err != nil {
			return err
		}
		if !hasRubric {
			return apperrors.Precondition("cannot start annotation without a rubric, create a rubric first")
		}

		traces, err := s.traces.ListByWorkshop(ctx, workshopID)
		if err != nil {
			return err
		}
		if len(traces) == 0 {
			return apperrors.Precondition("cannot start annotation: no traces available")
		}

		if limit == 0 {
			limit = DefaultAnnotationLimit
		}

		var ids []string
		if limit == AllTracesLimit || limit >= len(traces) {
			ids = domain.TraceIDs(traces)
		} else {
			ids = s.sample(traces, limit)
		}

		workshop.ActiveAnnotationTraceIDs = ids
		workshop.AnnotationStarted = true
		workshop.CurrentPhase = domain.PhaseAnnotation
		if err := s.workshops.UpdateState(ctx, workshop); err != nil {
			return err
		}

		metrics.SetActiveSetSize(workshopID.String(), domain.PhaseAnnotation.String(), len(ids))
		s.publish(ctx, workshopID, domain.EventPhaseChanged, actorID, map[string]any{
			"to":         domain.PhaseAnnotation.String(),
			"tracesUsed": len(ids),
		})

		result = &domain.AnnotationStartResult{
			TotalTraces: len(traces),
			TracesUsed:  len(ids),
			Limit:       limit,
			Phase:       domain.PhaseAnnotation,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddTraces grows the named phase's active set from the chronological
// complement of the pool. An empty complement is a zero-added success, not
// an error.
func (s *PhaseService) AddTraces(ctx context.Context, workshopID uuid.UUID, phase domain.Phase, additionalCount int, actorID *uuid.UUID) (*domain.AddTracesResult, error) {
	if additionalCount <= 0 {
		return nil, apperrors.Precondition("additionalCount must be a positive integer")
	}
	if phase != domain.PhaseDiscovery && phase != domain.PhaseAnnotation {
		return nil, apperrors.BadRequest(fmt.Sprintf("cannot add traces to %s phase: must be discovery or annotation", phase))
	}

	var result *domain.AddTracesResult

	err := s.locks.Do(workshopID.String(), func() error {
		workshop, err := s.workshops.GetByID(ctx, workshopID)
		if err != nil {
			return err
		}

		traces, err := s.traces.ListByWorkshop(ctx, workshopID)
		if err != nil {
			return err
		}

		active, _ := workshop.ActiveTraceIDs(phase)
		grown, added := growActiveSet(traces, active, additionalCount)

		if added == 0 {
			result = &domain.AddTracesResult{
				TracesAdded:              0,
				TotalActiveTraces:        len(active),
				AvailableTracesRemaining: 0,
				Phase:                    phase,
			}
			return nil
		}

		if phase == domain.PhaseDiscovery {
			workshop.ActiveDiscoveryTraceIDs = grown
		} else {
			workshop.ActiveAnnotationTraceIDs = grown
		}
		if err := s.workshops.UpdateState(ctx, workshop); err != nil {
			return err
		}

		metrics.SetActiveSetSize(workshopID.String(), phase.String(), len(grown))
		s.publish(ctx, workshopID, domain.EventTracesAdded, actorID, map[string]any{
			"phase":       phase.String(),
			"tracesAdded": added,
		})

		result = &domain.AddTracesResult{
			TracesAdded:              added,
			TotalActiveTraces:        len(grown),
			AvailableTracesRemaining: len(traces) - len(grown),
			Phase:                    phase,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReorderAnnotationTraces permutes the annotation active set so traces with
// the most annotation coverage come first. Membership never changes.
func (s *PhaseService) ReorderAnnotationTraces(ctx context.Context, workshopID uuid.UUID, actorID *uuid.UUID) (*domain.ReorderResult, error) {
	var result *domain.ReorderResult

	err := s.locks.Do(workshopID.String(), func() error {
		workshop, err := s.workshops.GetByID(ctx, workshopID)
		if err != nil {
			return err
		}

		if len(workshop.ActiveAnnotationTraceIDs) == 0 {
			result = &domain.ReorderResult{ReorderedCount: 0}
			return nil
		}

		annotations, err := s.annotations.ListByWorkshop(ctx, workshopID)
		if err != nil {
			return err
		}

		ranked := rankByProgress(workshop.ActiveAnnotationTraceIDs, annotations)
		order := make([]string, len(ranked))
		for i, p := range ranked {
			order[i] = p.TraceID
		}
		if !isPermutation(workshop.ActiveAnnotationTraceIDs, order) {
			return apperrors.Internal("reorder changed active set membership")
		}

		workshop.ActiveAnnotationTraceIDs = order
		if err := s.workshops.UpdateState(ctx, workshop); err != nil {
			return err
		}

		s.publish(ctx, workshopID, domain.EventTracesReordered, actorID, map[string]any{
			"reorderedCount": len(order),
		})

		result = &domain.ReorderResult{ReorderedCount: len(order), Order: order}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CompletePhase marks a phase as done for navigation; idempotent.
func (s *PhaseService) CompletePhase(ctx context.Context, workshopID uuid.UUID, phase domain.Phase, actorID *uuid.UUID) (*domain.PhaseCompletionResult, error) {
	var result *domain.PhaseCompletionResult

	err := s.locks.Do(workshopID.String(), func() error {
		workshop, err := s.workshops.GetByID(ctx, workshopID)
		if err != nil {
			return err
		}

		if !workshop.HasCompletedPhase(phase) {
			workshop.MarkPhaseCompleted(phase)
			if err := s.workshops.UpdateState(ctx, workshop); err != nil {
				return err
			}
			s.publish(ctx, workshopID, domain.EventPhaseCompleted, actorID, map[string]any{
				"phase": phase.String(),
			})
		}

		result = &domain.PhaseCompletionResult{
			CompletedPhases: workshop.CompletedPhases,
			CurrentPhase:    workshop.CurrentPhase,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ResumePhase unmarks a completed phase and re-enters it for editing
func (s *PhaseService) ResumePhase(ctx context.Context, workshopID uuid.UUID, phase domain.Phase, actorID *uuid.UUID) (*domain.PhaseCompletionResult, error) {
	var result *domain.PhaseCompletionResult

	err := s.locks.Do(workshopID.String(), func() error {
		workshop, err := s.workshops.GetByID(ctx, workshopID)
		if err != nil {
			return err
		}

		workshop.UnmarkPhaseCompleted(phase)
		workshop.CurrentPhase = phase
		if err := s.workshops.UpdateState(ctx, workshop); err != nil {
			return err
		}

		s.publish(ctx, workshopID, domain.EventPhaseResumed, actorID, map[string]any{
			"phase": phase.String(),
		})

		result = &domain.PhaseCompletionResult{
			CompletedPhases: workshop.CompletedPhases,
			CurrentPhase:    workshop.CurrentPhase,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PhaseService) loadCounts(ctx context.Context, workshopID uuid.UUID) (domain.WorkshopCounts, error) {
	var counts domain.WorkshopCounts
	var err error

	if counts.Traces, err = s.traces.Count(ctx, workshopID); err != nil {
		return counts, err
	}
	if counts.Findings, err = s.findings.Count(ctx, workshopID); err != nil {
		return counts, err
	}
	if counts.Annotations, err = s.annotations.Count(ctx, workshopID); err != nil {
		return counts, err
	}
	if counts.HasRubric, err = s.rubrics.Exists(ctx, workshopID); err != nil {
		return counts, err
	}

	return counts, nil
}

// sample draws from the shared source under a mutex; rand.Rand is not safe
// for concurrent use.
func (s *PhaseService) sample(traces []domain.Trace, limit int) []string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return randomSample(traces, limit, s.rng)
}

func (s *PhaseService) publish(ctx context.Context, workshopID uuid.UUID, eventType domain.EventType, actorID *uuid.UUID, details map[string]any) {
	if s.events != nil {
		_, err := s.events.Append(ctx, &domain.WorkshopEventInput{
			WorkshopID: workshopID,
			Type:       eventType,
			ActorID:    actorID,
			Details:    details,
		})
		if err != nil {
			logger.Warn("failed to append workshop event",
				zap.String("workshop_id", workshopID.String()),
				zap.String("type", string(eventType)),
				zap.Error(err))
		}
	}

	if s.realtime != nil {
		s.realtime.Publish(ctx, workshopID, string(eventType), details)
		metrics.RecordEventPublished(string(eventType))
	}
}
