package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalworkshop/evalworkshop/api/internal/config"
	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	apperrors "github.com/evalworkshop/evalworkshop/api/internal/pkg/errors"
)

func newIntakeFixture(t *testing.T, handler http.HandlerFunc) (*IntakeService, *phaseFixture, *httptest.Server) {
	t.Helper()
	f := newPhaseFixture(t, 0, domain.PhaseIntake)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{}
	cfg.Intake.RequestTimeoutSeconds = 5
	cfg.Intake.MaxTraces = 100
	return NewIntakeService(cfg, f.workshops, f.traces, nil), f, server
}

func traceServerHandler(t *testing.T, traces []domain.ExternalTrace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/experiments/exp-7/traces", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{"traces": traces})
	}
}

func TestIntakeRun(t *testing.T) {
	ctx := context.Background()
	external := []domain.ExternalTrace{
		{TraceID: "ext-1", Input: "hello", Output: "hi there", URL: "https://traces/ext-1"},
		{TraceID: "ext-2", Input: "bye", Output: "goodbye"},
	}
	svc, f, server := newIntakeFixture(t, traceServerHandler(t, external))

	req := &domain.IntakeRequest{
		Host:         server.URL,
		Token:        "tok",
		ExperimentID: "exp-7",
	}
	result, err := svc.Run(ctx, f.workshopID, req)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TracesIngested)
	assert.Equal(t, 0, result.TracesSkipped)

	traces, err := f.traces.ListByWorkshop(ctx, f.workshopID)
	require.NoError(t, err)
	require.Len(t, traces, 2)
	assert.Equal(t, "ext-1", traces[0].ExternalTraceID)
	assert.Equal(t, "exp-7", traces[0].ExperimentID)
	assert.Equal(t, server.URL, traces[0].ExternalHost)
	assert.NotEmpty(t, traces[0].ID)

	// a second run against the same experiment only skips
	result, err = svc.Run(ctx, f.workshopID, req)
	require.NoError(t, err)
	assert.Equal(t, 0, result.TracesIngested)
	assert.Equal(t, 2, result.TracesSkipped)
}

func TestIntakeRunUnauthorized(t *testing.T) {
	ctx := context.Background()
	svc, f, server := newIntakeFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := svc.Run(ctx, f.workshopID, &domain.IntakeRequest{
		Host:         server.URL,
		ExperimentID: "exp-7",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestIntakeRunEmptyExperiment(t *testing.T) {
	ctx := context.Background()
	svc, f, server := newIntakeFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"traces": []domain.ExternalTrace{}})
	})

	result, err := svc.Run(ctx, f.workshopID, &domain.IntakeRequest{
		Host:         server.URL,
		ExperimentID: "exp-7",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.TracesIngested)
}

func TestIntakeRequestLimit(t *testing.T) {
	ctx := context.Background()
	var gotLimit string
	svc, f, server := newIntakeFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		_ = json.NewEncoder(w).Encode(map[string]any{"traces": []domain.ExternalTrace{}})
	})

	_, err := svc.Run(ctx, f.workshopID, &domain.IntakeRequest{
		Host:         server.URL,
		ExperimentID: "exp-7",
		MaxTraces:    25,
	})
	require.NoError(t, err)
	assert.Equal(t, "25", gotLimit)
}

func TestIntakeTestConnection(t *testing.T) {
	ctx := context.Background()
	svc, _, server := newIntakeFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"traces": []domain.ExternalTrace{}})
	})

	require.NoError(t, svc.TestConnection(ctx, &domain.IntakeRequest{
		Host:         server.URL,
		ExperimentID: "exp-7",
	}))
}
