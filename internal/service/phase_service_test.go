package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	apperrors "github.com/evalworkshop/evalworkshop/api/internal/pkg/errors"
)

// In-memory fakes backing the phase controller tests. The workshop fake
// enforces the same version check as the real repository so conflict
// behavior is exercised, not stubbed away.

type fakeWorkshopRepo struct {
	mu        sync.Mutex
	workshops map[uuid.UUID]*domain.Workshop
}

func newFakeWorkshopRepo() *fakeWorkshopRepo {
	return &fakeWorkshopRepo{workshops: make(map[uuid.UUID]*domain.Workshop)}
}

func copyWorkshop(w *domain.Workshop) *domain.Workshop {
	c := *w
	c.CompletedPhases = append([]domain.Phase(nil), w.CompletedPhases...)
	c.ActiveDiscoveryTraceIDs = append([]string(nil), w.ActiveDiscoveryTraceIDs...)
	c.ActiveAnnotationTraceIDs = append([]string(nil), w.ActiveAnnotationTraceIDs...)
	return &c
}

func (r *fakeWorkshopRepo) Create(_ context.Context, w *domain.Workshop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workshops[w.ID] = copyWorkshop(w)
	return nil
}

func (r *fakeWorkshopRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Workshop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workshops[id]
	if !ok {
		return nil, apperrors.NotFound("workshop")
	}
	return copyWorkshop(w), nil
}

func (r *fakeWorkshopRepo) List(_ context.Context, _, _ int) ([]domain.Workshop, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Workshop
	for _, w := range r.workshops {
		out = append(out, *copyWorkshop(w))
	}
	return out, len(out), nil
}

func (r *fakeWorkshopRepo) Update(_ context.Context, w *domain.Workshop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.workshops[w.ID]
	if !ok {
		return apperrors.NotFound("workshop")
	}
	stored.Name = w.Name
	stored.Description = w.Description
	stored.Status = w.Status
	stored.FacilitatorID = w.FacilitatorID
	return nil
}

func (r *fakeWorkshopRepo) UpdateState(_ context.Context, w *domain.Workshop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.workshops[w.ID]
	if !ok {
		return apperrors.NotFound("workshop")
	}
	if stored.Version != w.Version {
		return apperrors.Conflict("workshop was modified concurrently")
	}
	next := copyWorkshop(w)
	next.Version = w.Version + 1
	r.workshops[w.ID] = next
	w.Version = next.Version
	return nil
}

func (r *fakeWorkshopRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workshops, id)
	return nil
}

func (r *fakeWorkshopRepo) version(id uuid.UUID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.workshops[id].Version
}

type fakeTraceRepo struct {
	mu     sync.Mutex
	traces map[uuid.UUID][]domain.Trace
}

func newFakeTraceRepo() *fakeTraceRepo {
	return &fakeTraceRepo{traces: make(map[uuid.UUID][]domain.Trace)}
}

func (r *fakeTraceRepo) CreateBatch(_ context.Context, workshopID uuid.UUID, traces []domain.Trace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.traces[workshopID] = append(r.traces[workshopID], traces...)
	return nil
}

func (r *fakeTraceRepo) GetByID(_ context.Context, workshopID uuid.UUID, traceID string) (*domain.Trace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.traces[workshopID] {
		if t.ID == traceID {
			return &t, nil
		}
	}
	return nil, apperrors.NotFound("trace")
}

func (r *fakeTraceRepo) ListByWorkshop(_ context.Context, workshopID uuid.UUID) ([]domain.Trace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Trace(nil), r.traces[workshopID]...), nil
}

func (r *fakeTraceRepo) Count(_ context.Context, workshopID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.traces[workshopID]), nil
}

func (r *fakeTraceRepo) ExistingExternalIDs(_ context.Context, workshopID uuid.UUID, externalIDs []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make(map[string]bool)
	for _, t := range r.traces[workshopID] {
		if t.ExternalTraceID != "" {
			stored[t.ExternalTraceID] = true
		}
	}
	existing := make(map[string]bool)
	for _, id := range externalIDs {
		if stored[id] {
			existing[id] = true
		}
	}
	return existing, nil
}

type fakeFindingRepo struct {
	mu       sync.Mutex
	findings map[uuid.UUID][]domain.Finding
}

func newFakeFindingRepo() *fakeFindingRepo {
	return &fakeFindingRepo{findings: make(map[uuid.UUID][]domain.Finding)}
}

func (r *fakeFindingRepo) Upsert(_ context.Context, f *domain.Finding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findings[f.WorkshopID] = append(r.findings[f.WorkshopID], *f)
	return nil
}

func (r *fakeFindingRepo) ListByWorkshop(_ context.Context, workshopID uuid.UUID) ([]domain.Finding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Finding(nil), r.findings[workshopID]...), nil
}

func (r *fakeFindingRepo) ListByUser(_ context.Context, workshopID, userID uuid.UUID) ([]domain.Finding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Finding
	for _, f := range r.findings[workshopID] {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFindingRepo) Count(_ context.Context, workshopID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.findings[workshopID]), nil
}

func (r *fakeFindingRepo) DeleteByWorkshop(_ context.Context, workshopID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := len(r.findings[workshopID])
	delete(r.findings, workshopID)
	return removed, nil
}

type fakeRubricRepo struct {
	mu      sync.Mutex
	rubrics map[uuid.UUID]*domain.Rubric
}

func newFakeRubricRepo() *fakeRubricRepo {
	return &fakeRubricRepo{rubrics: make(map[uuid.UUID]*domain.Rubric)}
}

func (r *fakeRubricRepo) Upsert(_ context.Context, rubric *domain.Rubric) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rubrics[rubric.WorkshopID] = rubric
	return nil
}

func (r *fakeRubricRepo) GetByWorkshop(_ context.Context, workshopID uuid.UUID) (*domain.Rubric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rubric, ok := r.rubrics[workshopID]
	if !ok {
		return nil, apperrors.NotFound("rubric")
	}
	return rubric, nil
}

func (r *fakeRubricRepo) Exists(_ context.Context, workshopID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rubrics[workshopID]
	return ok, nil
}

func (r *fakeRubricRepo) Delete(_ context.Context, workshopID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rubrics, workshopID)
	return nil
}

type fakeAnnotationRepo struct {
	mu          sync.Mutex
	annotations map[uuid.UUID][]domain.Annotation
}

func newFakeAnnotationRepo() *fakeAnnotationRepo {
	return &fakeAnnotationRepo{annotations: make(map[uuid.UUID][]domain.Annotation)}
}

func (r *fakeAnnotationRepo) Upsert(_ context.Context, a *domain.Annotation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.annotations[a.WorkshopID] = append(r.annotations[a.WorkshopID], *a)
	return nil
}

func (r *fakeAnnotationRepo) ListByWorkshop(_ context.Context, workshopID uuid.UUID) ([]domain.Annotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Annotation(nil), r.annotations[workshopID]...), nil
}

func (r *fakeAnnotationRepo) ListByUser(_ context.Context, workshopID, userID uuid.UUID) ([]domain.Annotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Annotation
	for _, a := range r.annotations[workshopID] {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAnnotationRepo) ListByTrace(_ context.Context, workshopID uuid.UUID, traceID string) ([]domain.Annotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Annotation
	for _, a := range r.annotations[workshopID] {
		if a.TraceID == traceID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAnnotationRepo) Count(_ context.Context, workshopID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.annotations[workshopID]), nil
}

func (r *fakeAnnotationRepo) DeleteByWorkshop(_ context.Context, workshopID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := len(r.annotations[workshopID])
	delete(r.annotations, workshopID)
	return removed, nil
}

// phaseFixture bundles a phase service with its fakes and one seeded workshop
type phaseFixture struct {
	svc         *PhaseService
	workshops   *fakeWorkshopRepo
	traces      *fakeTraceRepo
	findings    *fakeFindingRepo
	rubrics     *fakeRubricRepo
	annotations *fakeAnnotationRepo
	workshopID  uuid.UUID
}

func newPhaseFixture(t *testing.T, traceCount int, phase domain.Phase) *phaseFixture {
	t.Helper()

	f := &phaseFixture{
		workshops:   newFakeWorkshopRepo(),
		traces:      newFakeTraceRepo(),
		findings:    newFakeFindingRepo(),
		rubrics:     newFakeRubricRepo(),
		annotations: newFakeAnnotationRepo(),
		workshopID:  uuid.New(),
	}
	f.svc = NewPhaseService(f.workshops, f.traces, f.findings, f.rubrics, f.annotations, nil, nil, 42)

	now := time.Now()
	require.NoError(t, f.workshops.Create(context.Background(), &domain.Workshop{
		ID:           f.workshopID,
		Name:         "support quality review",
		Status:       domain.WorkshopStatusActive,
		CurrentPhase: phase,
		CreatedAt:    now,
		UpdatedAt:    now,
	}))

	traces := make([]domain.Trace, traceCount)
	for i := range traces {
		traces[i] = domain.Trace{
			ID:         fmt.Sprintf("trace-%03d", i+1),
			WorkshopID: f.workshopID,
			Seq:        int64(i + 1),
			CreatedAt:  now.Add(time.Duration(i) * time.Second),
		}
	}
	require.NoError(t, f.traces.CreateBatch(context.Background(), f.workshopID, traces))

	return f
}

func (f *phaseFixture) addRubric(t *testing.T) {
	t.Helper()
	require.NoError(t, f.rubrics.Upsert(context.Background(), &domain.Rubric{
		ID:         uuid.New(),
		WorkshopID: f.workshopID,
		Question:   "Accuracy: Is the answer factually correct?",
	}))
}

func (f *phaseFixture) addFinding(t *testing.T, traceID string) {
	t.Helper()
	require.NoError(t, f.findings.Upsert(context.Background(), &domain.Finding{
		ID:         uuid.New(),
		WorkshopID: f.workshopID,
		TraceID:    traceID,
		UserID:     uuid.New(),
		Insight:    "response misses the refund policy",
	}))
}

func (f *phaseFixture) addAnnotation(t *testing.T, traceID string, userID uuid.UUID) {
	t.Helper()
	require.NoError(t, f.annotations.Upsert(context.Background(), &domain.Annotation{
		ID:         uuid.New(),
		WorkshopID: f.workshopID,
		TraceID:    traceID,
		UserID:     userID,
		Ratings:    map[string]int{"q_1": 4},
	}))
}

func (f *phaseFixture) current(t *testing.T) *domain.Workshop {
	t.Helper()
	w, err := f.workshops.GetByID(context.Background(), f.workshopID)
	require.NoError(t, err)
	return w
}

func TestAdvanceHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newPhaseFixture(t, 5, domain.PhaseIntake)

	res, err := f.svc.Advance(ctx, f.workshopID, domain.PhaseDiscovery, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseDiscovery, res.Phase)
	assert.Equal(t, 5, res.TracesAvailable)
	assert.Equal(t, domain.PhaseDiscovery, f.current(t).CurrentPhase)

	f.addFinding(t, "trace-001")
	res, err = f.svc.Advance(ctx, f.workshopID, domain.PhaseRubric, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FindingsCollected)

	f.addRubric(t)
	_, err = f.svc.Advance(ctx, f.workshopID, domain.PhaseAnnotation, nil)
	require.NoError(t, err)

	f.addAnnotation(t, "trace-001", uuid.New())
	res, err = f.svc.Advance(ctx, f.workshopID, domain.PhaseResults, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.AnnotationsCollected)
	assert.Equal(t, domain.PhaseResults, f.current(t).CurrentPhase)
}

func TestAdvanceRejectsUnmetPrecondition(t *testing.T) {
	ctx := context.Background()

	t.Run("discovery without traces", func(t *testing.T) {
		f := newPhaseFixture(t, 0, domain.PhaseIntake)
		_, err := f.svc.Advance(ctx, f.workshopID, domain.PhaseDiscovery, nil)
		require.Error(t, err)
		assert.True(t, apperrors.IsPrecondition(err))
		assert.Equal(t, domain.PhaseIntake, f.current(t).CurrentPhase)
	})

	t.Run("annotation without rubric", func(t *testing.T) {
		f := newPhaseFixture(t, 5, domain.PhaseRubric)
		_, err := f.svc.Advance(ctx, f.workshopID, domain.PhaseAnnotation, nil)
		require.Error(t, err)
		assert.True(t, apperrors.IsPrecondition(err))
		assert.Equal(t, domain.PhaseRubric, f.current(t).CurrentPhase)

		// creating the rubric unblocks the same transition
		f.addRubric(t)
		_, err = f.svc.Advance(ctx, f.workshopID, domain.PhaseAnnotation, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseAnnotation, f.current(t).CurrentPhase)
	})
}

func TestAdvanceRejectsWrongFromPhase(t *testing.T) {
	ctx := context.Background()
	f := newPhaseFixture(t, 5, domain.PhaseIntake)
	f.addRubric(t)

	_, err := f.svc.Advance(ctx, f.workshopID, domain.PhaseAnnotation, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsBadRequest(err))
	assert.Equal(t, domain.PhaseIntake, f.current(t).CurrentPhase)
}

func TestAdvanceIdempotentReentry(t *testing.T) {
	ctx := context.Background()
	f := newPhaseFixture(t, 5, domain.PhaseAnnotation)

	res, err := f.svc.Advance(ctx, f.workshopID, domain.PhaseJudgeTuning, nil)
	require.NoError(t, err)
	assert.False(t, res.AlreadyInPhase)
	versionAfterFirst := f.workshops.version(f.workshopID)

	res, err = f.svc.Advance(ctx, f.workshopID, domain.PhaseJudgeTuning, nil)
	require.NoError(t, err)
	assert.True(t, res.AlreadyInPhase)
	assert.Equal(t, versionAfterFirst, f.workshops.version(f.workshopID), "re-entry must not write")
}

func TestAdvanceResetToIntake(t *testing.T) {
	ctx := context.Background()
	for _, phase := range domain.AllPhases {
		f := newPhaseFixture(t, 3, phase)
		res, err := f.svc.Advance(ctx, f.workshopID, domain.PhaseIntake, nil)
		require.NoError(t, err, "reset from %s", phase)
		assert.Equal(t, domain.PhaseIntake, res.Phase)
		assert.Equal(t, domain.PhaseIntake, f.current(t).CurrentPhase)
	}
}

func TestAdvanceWorkshopNotFound(t *testing.T) {
	f := newPhaseFixture(t, 3, domain.PhaseIntake)
	_, err := f.svc.Advance(context.Background(), uuid.New(), domain.PhaseDiscovery, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestBeginDiscovery(t *testing.T) {
	ctx := context.Background()

	t.Run("limit below pool selects chronological prefix", func(t *testing.T) {
		f := newPhaseFixture(t, 10, domain.PhaseIntake)
		res, err := f.svc.BeginDiscovery(ctx, f.workshopID, 3, nil)
		require.NoError(t, err)
		assert.Equal(t, 10, res.TotalTraces)
		assert.Equal(t, 3, res.TracesUsed)

		w := f.current(t)
		assert.Equal(t, []string{"trace-001", "trace-002", "trace-003"}, w.ActiveDiscoveryTraceIDs)
		assert.True(t, w.DiscoveryStarted)
		assert.Equal(t, domain.PhaseDiscovery, w.CurrentPhase)
	})

	t.Run("unset limit selects all", func(t *testing.T) {
		f := newPhaseFixture(t, 4, domain.PhaseIntake)
		res, err := f.svc.BeginDiscovery(ctx, f.workshopID, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, 4, res.TracesUsed)
		assert.Len(t, f.current(t).ActiveDiscoveryTraceIDs, 4)
	})

	t.Run("retry with same limit is deterministic", func(t *testing.T) {
		f := newPhaseFixture(t, 10, domain.PhaseIntake)
		_, err := f.svc.BeginDiscovery(ctx, f.workshopID, 5, nil)
		require.NoError(t, err)
		first := f.current(t).ActiveDiscoveryTraceIDs

		_, err = f.svc.BeginDiscovery(ctx, f.workshopID, 5, nil)
		require.NoError(t, err)
		assert.Equal(t, first, f.current(t).ActiveDiscoveryTraceIDs)
	})

	t.Run("empty pool rejected", func(t *testing.T) {
		f := newPhaseFixture(t, 0, domain.PhaseIntake)
		_, err := f.svc.BeginDiscovery(ctx, f.workshopID, 3, nil)
		require.Error(t, err)
		assert.True(t, apperrors.IsPrecondition(err))
	})
}

func TestBeginAnnotation(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a rubric", func(t *testing.T) {
		f := newPhaseFixture(t, 10, domain.PhaseRubric)
		_, err := f.svc.BeginAnnotation(ctx, f.workshopID, 5, nil)
		require.Error(t, err)
		assert.True(t, apperrors.IsPrecondition(err))
	})

	t.Run("samples without duplicates from the pool", func(t *testing.T) {
		f := newPhaseFixture(t, 20, domain.PhaseRubric)
		f.addRubric(t)

		res, err := f.svc.BeginAnnotation(ctx, f.workshopID, 5, nil)
		require.NoError(t, err)
		assert.Equal(t, 20, res.TotalTraces)
		assert.Equal(t, 5, res.TracesUsed)

		w := f.current(t)
		require.Len(t, w.ActiveAnnotationTraceIDs, 5)
		seen := make(map[string]bool)
		for _, id := range w.ActiveAnnotationTraceIDs {
			assert.False(t, seen[id], "duplicate %s", id)
			seen[id] = true
			_, err := f.traces.GetByID(ctx, f.workshopID, id)
			assert.NoError(t, err, "%s not in the pool", id)
		}
		assert.True(t, w.AnnotationStarted)
		assert.Equal(t, domain.PhaseAnnotation, w.CurrentPhase)
	})

	t.Run("same seed gives same sample", func(t *testing.T) {
		a := newPhaseFixture(t, 20, domain.PhaseRubric)
		a.addRubric(t)
		b := newPhaseFixture(t, 20, domain.PhaseRubric)
		b.addRubric(t)

		_, err := a.svc.BeginAnnotation(ctx, a.workshopID, 6, nil)
		require.NoError(t, err)
		_, err = b.svc.BeginAnnotation(ctx, b.workshopID, 6, nil)
		require.NoError(t, err)

		assert.Equal(t, a.current(t).ActiveAnnotationTraceIDs, b.current(t).ActiveAnnotationTraceIDs)
	})

	t.Run("sentinel selects whole pool in order", func(t *testing.T) {
		f := newPhaseFixture(t, 5, domain.PhaseRubric)
		f.addRubric(t)

		res, err := f.svc.BeginAnnotation(ctx, f.workshopID, AllTracesLimit, nil)
		require.NoError(t, err)
		assert.Equal(t, 5, res.TracesUsed)
		assert.Equal(t,
			[]string{"trace-001", "trace-002", "trace-003", "trace-004", "trace-005"},
			f.current(t).ActiveAnnotationTraceIDs)
	})

	t.Run("limit above pool selects whole pool", func(t *testing.T) {
		f := newPhaseFixture(t, 3, domain.PhaseRubric)
		f.addRubric(t)

		res, err := f.svc.BeginAnnotation(ctx, f.workshopID, 50, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, res.TracesUsed)
	})

	t.Run("rejects a negative limit below the sentinel", func(t *testing.T) {
		f := newPhaseFixture(t, 10, domain.PhaseRubric)
		f.addRubric(t)

		_, err := f.svc.BeginAnnotation(ctx, f.workshopID, -2, nil)
		require.Error(t, err)
		assert.True(t, apperrors.IsBadRequest(err))
		assert.Equal(t, domain.PhaseRubric, f.current(t).CurrentPhase)
	})
}

func TestAddTraces(t *testing.T) {
	ctx := context.Background()

	t.Run("appends chronologically earliest complement", func(t *testing.T) {
		f := newPhaseFixture(t, 5, domain.PhaseAnnotation)
		w := f.current(t)
		w.ActiveAnnotationTraceIDs = []string{"trace-001", "trace-003"}
		require.NoError(t, f.workshops.UpdateState(ctx, w))

		res, err := f.svc.AddTraces(ctx, f.workshopID, domain.PhaseAnnotation, 2, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, res.TracesAdded)
		assert.Equal(t, 4, res.TotalActiveTraces)
		assert.Equal(t, 1, res.AvailableTracesRemaining)
		assert.Equal(t,
			[]string{"trace-001", "trace-003", "trace-002", "trace-004"},
			f.current(t).ActiveAnnotationTraceIDs)
	})

	t.Run("empty complement is a zero-added success", func(t *testing.T) {
		f := newPhaseFixture(t, 2, domain.PhaseDiscovery)
		_, err := f.svc.BeginDiscovery(ctx, f.workshopID, 0, nil)
		require.NoError(t, err)

		res, err := f.svc.AddTraces(ctx, f.workshopID, domain.PhaseDiscovery, 3, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, res.TracesAdded)
		assert.Equal(t, 2, res.TotalActiveTraces)
		assert.Equal(t, 0, res.AvailableTracesRemaining)
	})

	t.Run("non-positive count rejected", func(t *testing.T) {
		f := newPhaseFixture(t, 5, domain.PhaseDiscovery)
		_, err := f.svc.AddTraces(ctx, f.workshopID, domain.PhaseDiscovery, 0, nil)
		require.Error(t, err)
		assert.True(t, apperrors.IsPrecondition(err))
	})

	t.Run("unsupported phase rejected", func(t *testing.T) {
		f := newPhaseFixture(t, 5, domain.PhaseResults)
		_, err := f.svc.AddTraces(ctx, f.workshopID, domain.PhaseResults, 2, nil)
		require.Error(t, err)
		assert.True(t, apperrors.IsBadRequest(err))
	})
}

func TestConcurrentAddTracesLosesNoUpdate(t *testing.T) {
	ctx := context.Background()
	f := newPhaseFixture(t, 30, domain.PhaseDiscovery)
	_, err := f.svc.BeginDiscovery(ctx, f.workshopID, 10, nil)
	require.NoError(t, err)

	const workers = 4
	const perWorker = 3

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddTraces(ctx, f.workshopID, domain.PhaseDiscovery, perWorker, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	w := f.current(t)
	assert.Len(t, w.ActiveDiscoveryTraceIDs, 10+workers*perWorker, "every addition must land")

	seen := make(map[string]bool)
	for _, id := range w.ActiveDiscoveryTraceIDs {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
}

func TestReorderAnnotationTraces(t *testing.T) {
	ctx := context.Background()

	t.Run("most reviewed first, membership unchanged", func(t *testing.T) {
		f := newPhaseFixture(t, 4, domain.PhaseAnnotation)
		w := f.current(t)
		w.ActiveAnnotationTraceIDs = []string{"trace-001", "trace-002", "trace-003", "trace-004"}
		require.NoError(t, f.workshops.UpdateState(ctx, w))

		reviewers := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
		// trace-003 gets three distinct reviewers, trace-002 one reviewer
		// with two submissions, trace-001 one
		for _, rev := range reviewers {
			f.addAnnotation(t, "trace-003", rev)
		}
		f.addAnnotation(t, "trace-002", reviewers[0])
		f.addAnnotation(t, "trace-002", reviewers[0])
		f.addAnnotation(t, "trace-001", reviewers[1])

		res, err := f.svc.ReorderAnnotationTraces(ctx, f.workshopID, nil)
		require.NoError(t, err)
		assert.Equal(t, 4, res.ReorderedCount)
		assert.Equal(t, []string{"trace-003", "trace-002", "trace-001", "trace-004"}, res.Order)
		assert.Equal(t, res.Order, f.current(t).ActiveAnnotationTraceIDs)
	})

	t.Run("distinct reviewers outrank raw counts", func(t *testing.T) {
		f := newPhaseFixture(t, 2, domain.PhaseAnnotation)
		w := f.current(t)
		w.ActiveAnnotationTraceIDs = []string{"trace-001", "trace-002"}
		require.NoError(t, f.workshops.UpdateState(ctx, w))

		// trace-001: one reviewer, five submissions; trace-002: three reviewers
		solo := uuid.New()
		for i := 0; i < 5; i++ {
			f.addAnnotation(t, "trace-001", solo)
		}
		for i := 0; i < 3; i++ {
			f.addAnnotation(t, "trace-002", uuid.New())
		}

		res, err := f.svc.ReorderAnnotationTraces(ctx, f.workshopID, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"trace-002", "trace-001"}, res.Order)
	})

	t.Run("empty active set reorders nothing", func(t *testing.T) {
		f := newPhaseFixture(t, 3, domain.PhaseAnnotation)
		res, err := f.svc.ReorderAnnotationTraces(ctx, f.workshopID, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, res.ReorderedCount)
		assert.Empty(t, res.Order)
	})
}

func TestCompleteAndResumePhase(t *testing.T) {
	ctx := context.Background()
	f := newPhaseFixture(t, 3, domain.PhaseResults)

	res, err := f.svc.CompletePhase(ctx, f.workshopID, domain.PhaseAnnotation, nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.Phase{domain.PhaseAnnotation}, res.CompletedPhases)
	assert.Equal(t, domain.PhaseResults, res.CurrentPhase)

	// idempotent: no second entry, no extra write
	version := f.workshops.version(f.workshopID)
	res, err = f.svc.CompletePhase(ctx, f.workshopID, domain.PhaseAnnotation, nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.Phase{domain.PhaseAnnotation}, res.CompletedPhases)
	assert.Equal(t, version, f.workshops.version(f.workshopID))

	res, err = f.svc.ResumePhase(ctx, f.workshopID, domain.PhaseAnnotation, nil)
	require.NoError(t, err)
	assert.Empty(t, res.CompletedPhases)
	assert.Equal(t, domain.PhaseAnnotation, res.CurrentPhase)
	assert.Equal(t, domain.PhaseAnnotation, f.current(t).CurrentPhase)
}
