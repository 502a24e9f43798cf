package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	apperrors "github.com/evalworkshop/evalworkshop/api/internal/pkg/errors"
)

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (s *fakeObjectStore) Put(_ context.Context, bucket, path string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+path] = append([]byte(nil), data...)
	return nil
}

func newExportFixture(t *testing.T) (*ExportService, *fakeObjectStore, *phaseFixture) {
	t.Helper()
	f := newPhaseFixture(t, 3, domain.PhaseResults)
	store := newFakeObjectStore()
	svc := NewExportService(f.workshops, f.traces, f.findings, f.rubrics, f.annotations, newFakeJudgeRepo(), nil, store, "exports")
	return svc, store, f
}

func TestExportJSON(t *testing.T) {
	ctx := context.Background()
	svc, store, f := newExportFixture(t)
	f.addRubric(t)
	f.addFinding(t, "trace-001")
	f.addAnnotation(t, "trace-001", uuid.New())

	result, err := svc.Export(ctx, f.workshopID, domain.ExportOptions{
		Format:             domain.ExportFormatJSON,
		IncludeTraces:      true,
		IncludeAnnotations: true,
		IncludeRubric:      true,
		IncludeJudge:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, "exports", result.Bucket)
	assert.True(t, strings.HasPrefix(result.Path, "workshops/"+f.workshopID.String()+"/"))
	assert.Greater(t, result.SizeBytes, 0)

	data, ok := store.objects[result.Bucket+"/"+result.Path]
	require.True(t, ok)

	var archive struct {
		Workshop    *domain.Workshop    `json:"workshop"`
		Traces      []domain.Trace      `json:"traces"`
		Findings    []domain.Finding    `json:"findings"`
		Rubric      *domain.Rubric      `json:"rubric"`
		Annotations []domain.Annotation `json:"annotations"`
	}
	require.NoError(t, json.Unmarshal(data, &archive))
	assert.Equal(t, f.workshopID, archive.Workshop.ID)
	assert.Len(t, archive.Traces, 3)
	assert.Len(t, archive.Findings, 1)
	assert.NotNil(t, archive.Rubric)
	assert.Len(t, archive.Annotations, 1)
}

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	svc, store, f := newExportFixture(t)
	user := uuid.New()
	f.addAnnotation(t, "trace-001", user)
	f.addAnnotation(t, "trace-002", user)

	result, err := svc.Export(ctx, f.workshopID, domain.ExportOptions{Format: domain.ExportFormatCSV})
	require.NoError(t, err)

	data := store.objects[result.Bucket+"/"+result.Path]
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3) // header plus one row per rating
	assert.Equal(t, "trace_id,user_id,question_id,rating,comment,created_at", lines[0])
	assert.Contains(t, lines[1], "trace-001")
	assert.Contains(t, lines[1], user.String())
}

func TestExportSkipsMissingRubric(t *testing.T) {
	ctx := context.Background()
	svc, store, f := newExportFixture(t)

	result, err := svc.Export(ctx, f.workshopID, domain.ExportOptions{
		Format:        domain.ExportFormatJSON,
		IncludeRubric: true,
	})
	require.NoError(t, err)

	var archive workshopArchive
	require.NoError(t, json.Unmarshal(store.objects[result.Bucket+"/"+result.Path], &archive))
	assert.Nil(t, archive.Rubric)
}

func TestExportUnsupportedFormat(t *testing.T) {
	ctx := context.Background()
	svc, _, f := newExportFixture(t)

	_, err := svc.Export(ctx, f.workshopID, domain.ExportOptions{Format: "xml"})
	require.Error(t, err)
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestExportUnknownWorkshop(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newExportFixture(t)

	_, err := svc.Export(ctx, uuid.New(), domain.ExportOptions{Format: domain.ExportFormatJSON})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
