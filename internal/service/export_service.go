package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	apperrors "github.com/evalworkshop/evalworkshop/api/internal/pkg/errors"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/logger"
)

// ObjectStore uploads archive blobs to object storage
type ObjectStore interface {
	Put(ctx context.Context, bucket, path string, data []byte, contentType string) error
}

// ExportService archives a workshop's artifacts to object storage. JSON
// exports bundle everything selected in the options; CSV exports flatten the
// annotations into one row per rating.
type ExportService struct {
	workshops   WorkshopRepository
	traces      TraceRepository
	findings    FindingRepository
	rubrics     RubricRepository
	annotations AnnotationRepository
	judges      JudgeRepository
	events      EventRepository
	store       ObjectStore
	bucket      string
}

// NewExportService creates a new export service
func NewExportService(
	workshops WorkshopRepository,
	traces TraceRepository,
	findings FindingRepository,
	rubrics RubricRepository,
	annotations AnnotationRepository,
	judges JudgeRepository,
	events EventRepository,
	store ObjectStore,
	bucket string,
) *ExportService {
	return &ExportService{
		workshops:   workshops,
		traces:      traces,
		findings:    findings,
		rubrics:     rubrics,
		annotations: annotations,
		judges:      judges,
		events:      events,
		store:       store,
		bucket:      bucket,
	}
}

// workshopArchive is the JSON export envelope
type workshopArchive struct {
	Workshop    *domain.Workshop     `json:"workshop"`
	Traces      []domain.Trace       `json:"traces,omitempty"`
	Findings    []domain.Finding     `json:"findings,omitempty"`
	Rubric      *domain.Rubric       `json:"rubric,omitempty"`
	Annotations []domain.Annotation  `json:"annotations,omitempty"`
	Judges      []domain.JudgePrompt `json:"judgePrompts,omitempty"`
	ExportedAt  time.Time            `json:"exportedAt"`
}

// Export builds a workshop archive and uploads it
func (s *ExportService) Export(ctx context.Context, workshopID uuid.UUID, opts domain.ExportOptions) (*domain.ExportResult, error) {
	data, contentType, err := s.BuildArchive(ctx, workshopID, opts)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	path := fmt.Sprintf("workshops/%s/export_%s.%s", workshopID, now.Format("20060102_150405"), opts.Format)
	if err := s.store.Put(ctx, s.bucket, path, data, contentType); err != nil {
		return nil, fmt.Errorf("failed to upload archive: %w", err)
	}

	result := &domain.ExportResult{
		WorkshopID: workshopID,
		Bucket:     s.bucket,
		Path:       path,
		Format:     opts.Format,
		SizeBytes:  len(data),
		ExportedAt: now,
	}

	if s.events != nil {
		_, _ = s.events.Append(ctx, &domain.WorkshopEventInput{
			WorkshopID: workshopID,
			Type:       domain.EventExportCompleted,
			Details: map[string]any{
				"path":      path,
				"format":    string(opts.Format),
				"sizeBytes": len(data),
			},
		})
	}

	logger.Info("workshop export completed",
		zap.String("workshop_id", workshopID.String()),
		zap.String("path", path),
		zap.Int("size_bytes", len(data)))
	return result, nil
}

// BuildArchive serializes the selected artifacts without uploading
func (s *ExportService) BuildArchive(ctx context.Context, workshopID uuid.UUID, opts domain.ExportOptions) ([]byte, string, error) {
	switch opts.Format {
	case domain.ExportFormatJSON, "":
		data, err := s.buildJSON(ctx, workshopID, opts)
		return data, "application/json", err
	case domain.ExportFormatCSV:
		data, err := s.buildAnnotationsCSV(ctx, workshopID)
		return data, "text/csv", err
	default:
		return nil, "", apperrors.BadRequest("unsupported export format: " + string(opts.Format))
	}
}

func (s *ExportService) buildJSON(ctx context.Context, workshopID uuid.UUID, opts domain.ExportOptions) ([]byte, error) {
	workshop, err := s.workshops.GetByID(ctx, workshopID)
	if err != nil {
		return nil, err
	}

	archive := workshopArchive{Workshop: workshop, ExportedAt: time.Now()}

	if opts.IncludeTraces {
		if archive.Traces, err = s.traces.ListByWorkshop(ctx, workshopID); err != nil {
			return nil, err
		}
		if archive.Findings, err = s.findings.ListByWorkshop(ctx, workshopID); err != nil {
			return nil, err
		}
	}
	if opts.IncludeRubric {
		rubric, err := s.rubrics.GetByWorkshop(ctx, workshopID)
		if err != nil && !apperrors.IsNotFound(err) {
			return nil, err
		}
		archive.Rubric = rubric
	}
	if opts.IncludeAnnotations {
		if archive.Annotations, err = s.annotations.ListByWorkshop(ctx, workshopID); err != nil {
			return nil, err
		}
	}
	if opts.IncludeJudge {
		if archive.Judges, err = s.judges.ListPrompts(ctx, workshopID); err != nil {
			return nil, err
		}
	}

	return json.MarshalIndent(archive, "", "  ")
}

func (s *ExportService) buildAnnotationsCSV(ctx context.Context, workshopID uuid.UUID) ([]byte, error) {
	if _, err := s.workshops.GetByID(ctx, workshopID); err != nil {
		return nil, err
	}
	annotations, err := s.annotations.ListByWorkshop(ctx, workshopID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"trace_id", "user_id", "question_id", "rating", "comment", "created_at"}); err != nil {
		return nil, err
	}

	for i := range annotations {
		a := &annotations[i]
		qids := make([]string, 0, len(a.Ratings))
		for qid := range a.Ratings {
			qids = append(qids, qid)
		}
		sort.Strings(qids)
		for _, qid := range qids {
			row := []string{
				a.TraceID,
				a.UserID.String(),
				qid,
				strconv.Itoa(a.Ratings[qid]),
				a.Comment,
				a.CreatedAt.Format(time.RFC3339),
			}
			if err := writer.Write(row); err != nil {
				return nil, err
			}
		}
	}

	writer.Flush()
	return buf.Bytes(), writer.Error()
}
