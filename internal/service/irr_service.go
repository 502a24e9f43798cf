package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	apperrors "github.com/evalworkshop/evalworkshop/api/internal/pkg/errors"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/logger"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/metrics"
)

// IRRService computes inter-rater reliability for a workshop's annotations,
// selecting the metric from the data: Cohen's kappa for exactly two raters,
// Krippendorff's alpha otherwise (and whenever kappa's requirements fail).
type IRRService struct {
	workshops   WorkshopRepository
	annotations AnnotationRepository
}

// NewIRRService creates a new IRR service
func NewIRRService(workshops WorkshopRepository, annotations AnnotationRepository) *IRRService {
	return &IRRService{workshops: workshops, annotations: annotations}
}

// Calculate computes the workshop's agreement score
func (s *IRRService) Calculate(ctx context.Context, workshopID uuid.UUID) (*domain.IRRResult, error) {
	if _, err := s.workshops.GetByID(ctx, workshopID); err != nil {
		return nil, err
	}

	annotations, err := s.annotations.ListByWorkshop(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	if len(annotations) < 2 {
		return nil, apperrors.Precondition("need at least 2 annotations to calculate agreement")
	}

	started := time.Now()
	raters := distinctRaters(annotations)
	questionIDs := questionIDsOf(annotations)

	primaryQuestion := ""
	if len(questionIDs) > 0 {
		primaryQuestion = questionIDs[0]
	}

	result := &domain.IRRResult{
		WorkshopID:     workshopID,
		NumRaters:      raters,
		NumAnnotations: len(annotations),
		PerQuestion:    krippendorffAlphaPerQuestion(annotations),
		CalculatedAt:   time.Now(),
	}

	if raters == 2 {
		if kappa, err := cohensKappa(annotations, primaryQuestion); err == nil {
			result.Metric = domain.IRRMetricCohensKappa
			result.Score = kappa
			result.Interpretation = interpretKappa(kappa)
		}
	}
	if result.Metric == "" {
		alpha := krippendorffAlpha(annotations, primaryQuestion)
		result.Metric = domain.IRRMetricKrippendorffAlpha
		result.Score = alpha
		result.Interpretation = interpretAlpha(alpha)
	}

	result.ReadyToProceed = result.Score >= AgreementThreshold
	result.Suggestions = improvementSuggestions(result.Score)

	metrics.ObserveIRRCalculation(string(result.Metric), time.Since(started))
	logger.Info("agreement calculated",
		zap.String("workshop_id", workshopID.String()),
		zap.String("metric", string(result.Metric)),
		zap.Float64("score", result.Score))

	return result, nil
}
