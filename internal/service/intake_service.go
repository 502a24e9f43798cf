package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evalworkshop/evalworkshop/api/internal/config"
	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/circuitbreaker"
	apperrors "github.com/evalworkshop/evalworkshop/api/internal/pkg/errors"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/id"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/logger"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/metrics"
)

// IntakeService pulls traces from an external trace server into a workshop
// pool. Traces already ingested (matched by external trace ID) are skipped,
// so repeated intake runs against the same experiment are safe.
type IntakeService struct {
	cfg       *config.Config
	workshops WorkshopRepository
	traces    TraceRepository
	events    EventRepository
	client    *http.Client
	breaker   *circuitbreaker.CircuitBreaker
}

// NewIntakeService creates a new intake service
func NewIntakeService(
	cfg *config.Config,
	workshops WorkshopRepository,
	traces TraceRepository,
	events EventRepository,
) *IntakeService {
	timeout := time.Duration(cfg.Intake.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	bc := circuitbreaker.DefaultConfig("trace-intake")
	bc.OnStateChange = func(name string, from, to circuitbreaker.State) {
		logger.Warn("circuit breaker state changed",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()))
	}

	return &IntakeService{
		cfg:       cfg,
		workshops: workshops,
		traces:    traces,
		events:    events,
		client:    &http.Client{Timeout: timeout},
		breaker:   circuitbreaker.New(bc),
	}
}

// Run pulls traces for one experiment into the workshop pool
func (s *IntakeService) Run(ctx context.Context, workshopID uuid.UUID, req *domain.IntakeRequest) (*domain.IntakeResult, error) {
	if _, err := s.workshops.GetByID(ctx, workshopID); err != nil {
		return nil, err
	}

	maxTraces := req.MaxTraces
	if maxTraces <= 0 {
		maxTraces = s.cfg.Intake.MaxTraces
	}
	if maxTraces <= 0 {
		maxTraces = 100
	}

	external, err := s.fetch(ctx, req, maxTraces)
	if err != nil {
		return nil, err
	}

	result := &domain.IntakeResult{
		ExperimentID: req.ExperimentID,
		Host:         req.Host,
	}
	if len(external) == 0 {
		return result, nil
	}

	externalIDs := make([]string, 0, len(external))
	for _, t := range external {
		if t.TraceID != "" {
			externalIDs = append(externalIDs, t.TraceID)
		}
	}
	existing, err := s.traces.ExistingExternalIDs(ctx, workshopID, externalIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var batch []domain.Trace
	for _, t := range external {
		if t.TraceID != "" && existing[t.TraceID] {
			result.TracesSkipped++
			continue
		}
		batch = append(batch, domain.Trace{
			ID:         id.NewTraceID(),
			WorkshopID: workshopID,
			Input:      t.Input,
			Output:     t.Output,
			Metadata:   t.Metadata,

			ExternalTraceID: t.TraceID,
			ExternalURL:     t.URL,
			ExternalHost:    req.Host,
			ExperimentID:    req.ExperimentID,

			CreatedAt: now,
		})
	}

	if len(batch) > 0 {
		if err := s.traces.CreateBatch(ctx, workshopID, batch); err != nil {
			return nil, err
		}
	}
	result.TracesIngested = len(batch)

	metrics.RecordTracesIngested(workshopID.String(), "intake", result.TracesIngested)
	if s.events != nil {
		_, _ = s.events.Append(ctx, &domain.WorkshopEventInput{
			WorkshopID: workshopID,
			Type:       domain.EventTracesIngested,
			Details: map[string]any{
				"experimentId":   req.ExperimentID,
				"tracesIngested": result.TracesIngested,
				"tracesSkipped":  result.TracesSkipped,
			},
		})
	}

	logger.Info("trace intake completed",
		zap.String("workshop_id", workshopID.String()),
		zap.String("experiment_id", req.ExperimentID),
		zap.Int("ingested", result.TracesIngested),
		zap.Int("skipped", result.TracesSkipped))

	return result, nil
}

// TestConnection verifies the trace server is reachable with the given
// credentials by fetching a single trace.
func (s *IntakeService) TestConnection(ctx context.Context, req *domain.IntakeRequest) error {
	_, err := s.fetch(ctx, req, 1)
	return err
}

type traceSearchResponse struct {
	Traces []domain.ExternalTrace `json:"traces"`
}

func (s *IntakeService) fetch(ctx context.Context, req *domain.IntakeRequest, maxTraces int) ([]domain.ExternalTrace, error) {
	endpoint, err := searchURL(req, maxTraces)
	if err != nil {
		return nil, apperrors.BadRequest("invalid trace server host: " + req.Host)
	}

	var traces []domain.ExternalTrace
	err = s.breaker.Execute(ctx, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		httpReq.Header.Set("Accept", "application/json")
		if req.Token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+req.Token)
		}

		resp, err := s.client.Do(httpReq)
		if err != nil {
			return fmt.Errorf("trace server request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read trace server response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return apperrors.BadRequest("trace server rejected credentials, check the token")
		case resp.StatusCode == http.StatusNotFound:
			return apperrors.BadRequest("experiment not found on trace server: " + req.ExperimentID)
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("trace server returned status %d", resp.StatusCode)
		}

		var parsed traceSearchResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("failed to decode trace server response: %w", err)
		}
		traces = parsed.Traces
		return nil
	})
	if err != nil {
		if err == circuitbreaker.ErrCircuitOpen || err == circuitbreaker.ErrTooManyRequests {
			return nil, apperrors.Precondition("trace server is unavailable, retry later")
		}
		return nil, err
	}
	return traces, nil
}

func searchURL(req *domain.IntakeRequest, maxTraces int) (string, error) {
	base, err := url.Parse(strings.TrimRight(req.Host, "/"))
	if err != nil || base.Host == "" {
		return "", fmt.Errorf("invalid host %q", req.Host)
	}
	base.Path += "/api/experiments/" + url.PathEscape(req.ExperimentID) + "/traces"

	q := base.Query()
	q.Set("limit", strconv.Itoa(maxTraces))
	if req.Filter != "" {
		q.Set("filter", req.Filter)
	}
	base.RawQuery = q.Encode()
	return base.String(), nil
}
