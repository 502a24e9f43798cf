package handler

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	apperrors "github.com/evalworkshop/evalworkshop/api/internal/pkg/errors"
)

// In-memory repositories backing the handler tests. Handlers are exercised
// against real services so the full parse-validate-execute path runs.

type memWorkshopRepo struct {
	mu        sync.Mutex
	workshops map[uuid.UUID]*domain.Workshop
}

func newMemWorkshopRepo() *memWorkshopRepo {
	return &memWorkshopRepo{workshops: make(map[uuid.UUID]*domain.Workshop)}
}

func cloneWorkshop(w *domain.Workshop) *domain.Workshop {
	c := *w
	c.CompletedPhases = append([]domain.Phase(nil), w.CompletedPhases...)
	c.ActiveDiscoveryTraceIDs = append([]string(nil), w.ActiveDiscoveryTraceIDs...)
	c.ActiveAnnotationTraceIDs = append([]string(nil), w.ActiveAnnotationTraceIDs...)
	return &c
}

func (r *memWorkshopRepo) Create(_ context.Context, w *domain.Workshop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workshops[w.ID] = cloneWorkshop(w)
	return nil
}

func (r *memWorkshopRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Workshop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workshops[id]
	if !ok {
		return nil, apperrors.NotFound("workshop")
	}
	return cloneWorkshop(w), nil
}

func (r *memWorkshopRepo) List(_ context.Context, _, _ int) ([]domain.Workshop, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Workshop, 0, len(r.workshops))
	for _, w := range r.workshops {
		out = append(out, *cloneWorkshop(w))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (r *memWorkshopRepo) Update(_ context.Context, w *domain.Workshop) error {
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

func (r *memWorkshopRepo) UpdateState(_ context.Context, w *domain.Workshop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.workshops[w.ID]
	if !ok {
		return apperrors.NotFound("workshop")
	}
	if stored.Version != w.Version {
		return apperrors.Conflict("workshop was modified concurrently")
	}
	next := cloneWorkshop(w)
	next.Version = w.Version + 1
	r.workshops[w.ID] = next
	w.Version = next.Version
	return nil
}

func (r *memWorkshopRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workshops, id)
	return nil
}

type memTraceRepo struct {
	mu     sync.Mutex
	traces map[uuid.UUID][]domain.Trace
}

func newMemTraceRepo() *memTraceRepo {
	return &memTraceRepo{traces: make(map[uuid.UUID][]domain.Trace)}
}

func (r *memTraceRepo) CreateBatch(_ context.Context, workshopID uuid.UUID, traces []domain.Trace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.traces[workshopID] = append(r.traces[workshopID], traces...)
	return nil
}

func (r *memTraceRepo) GetByID(_ context.Context, workshopID uuid.UUID, traceID string) (*domain.Trace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tr := range r.traces[workshopID] {
		if tr.ID == traceID {
			c := tr
			return &c, nil
		}
	}
	return nil, apperrors.NotFound("trace")
}

func (r *memTraceRepo) ListByWorkshop(_ context.Context, workshopID uuid.UUID) ([]domain.Trace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Trace(nil), r.traces[workshopID]...), nil
}

func (r *memTraceRepo) Count(_ context.Context, workshopID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.traces[workshopID]), nil
}

func (r *memTraceRepo) ExistingExternalIDs(_ context.Context, workshopID uuid.UUID, externalIDs []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := make(map[string]bool)
	for _, tr := range r.traces[workshopID] {
		if tr.ExternalTraceID != "" {
			existing[tr.ExternalTraceID] = true
		}
	}
	out := make(map[string]bool)
	for _, id := range externalIDs {
		if existing[id] {
			out[id] = true
		}
	}
	return out, nil
}

type memFindingRepo struct {
	mu       sync.Mutex
	findings []domain.Finding
}

func (r *memFindingRepo) Upsert(_ context.Context, f *domain.Finding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findings = append(r.findings, *f)
	return nil
}

func (r *memFindingRepo) ListByWorkshop(_ context.Context, workshopID uuid.UUID) ([]domain.Finding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Finding
	for _, f := range r.findings {
		if f.WorkshopID == workshopID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFindingRepo) ListByUser(_ context.Context, workshopID, userID uuid.UUID) ([]domain.Finding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Finding
	for _, f := range r.findings {
		if f.WorkshopID == workshopID && f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFindingRepo) Count(_ context.Context, workshopID uuid.UUID) (int, error) {
	list, _ := r.ListByWorkshop(context.Background(), workshopID)
	return len(list), nil
}

func (r *memFindingRepo) DeleteByWorkshop(_ context.Context, workshopID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []domain.Finding
	removed := 0
	for _, f := range r.findings {
		if f.WorkshopID == workshopID {
			removed++
			continue
		}
		kept = append(kept, f)
	}
	r.findings = kept
	return removed, nil
}

type memRubricRepo struct {
	mu      sync.Mutex
	rubrics map[uuid.UUID]*domain.Rubric
}

func newMemRubricRepo() *memRubricRepo {
	return &memRubricRepo{rubrics: make(map[uuid.UUID]*domain.Rubric)}
}

func (r *memRubricRepo) Upsert(_ context.Context, rubric *domain.Rubric) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *rubric
	r.rubrics[rubric.WorkshopID] = &c
	return nil
}

func (r *memRubricRepo) GetByWorkshop(_ context.Context, workshopID uuid.UUID) (*domain.Rubric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rubric, ok := r.rubrics[workshopID]
	if !ok {
		return nil, apperrors.NotFound("rubric")
	}
	c := *rubric
	return &c, nil
}

func (r *memRubricRepo) Exists(_ context.Context, workshopID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rubrics[workshopID]
	return ok, nil
}

func (r *memRubricRepo) Delete(_ context.Context, workshopID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rubrics, workshopID)
	return nil
}

type memAnnotationRepo struct {
	mu          sync.Mutex
	annotations []domain.Annotation
}

func (r *memAnnotationRepo) Upsert(_ context.Context, a *domain.Annotation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.annotations = append(r.annotations, *a)
	return nil
}

func (r *memAnnotationRepo) ListByWorkshop(_ context.Context, workshopID uuid.UUID) ([]domain.Annotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Annotation
	for _, a := range r.annotations {
		if a.WorkshopID == workshopID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAnnotationRepo) ListByUser(_ context.Context, workshopID, userID uuid.UUID) ([]domain.Annotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Annotation
	for _, a := range r.annotations {
		if a.WorkshopID == workshopID && a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAnnotationRepo) ListByTrace(_ context.Context, workshopID uuid.UUID, traceID string) ([]domain.Annotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Annotation
	for _, a := range r.annotations {
		if a.WorkshopID == workshopID && a.TraceID == traceID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAnnotationRepo) Count(_ context.Context, workshopID uuid.UUID) (int, error) {
	list, _ := r.ListByWorkshop(context.Background(), workshopID)
	return len(list), nil
}

func (r *memAnnotationRepo) DeleteByWorkshop(_ context.Context, workshopID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []domain.Annotation
	removed := 0
	for _, a := range r.annotations {
		if a.WorkshopID == workshopID {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	r.annotations = kept
	return removed, nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *u
	r.users[u.ID] = &c
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	c := *u
	return &c, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, workshopID uuid.UUID, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.WorkshopID == workshopID && strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

func (r *memUserRepo) ListByWorkshop(_ context.Context, workshopID uuid.UUID) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if u.WorkshopID == workshopID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *memUserRepo) TouchLastActive(_ context.Context, id uuid.UUID) error {
	return nil
}
