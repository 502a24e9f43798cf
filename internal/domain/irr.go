package domain

import (
	"time"

	"github.com/google/uuid"
)

// IRRMetric names an inter-rater reliability metric
type IRRMetric string

const (
	IRRMetricCohensKappa       IRRMetric = "cohens_kappa"
	IRRMetricKrippendorffAlpha IRRMetric = "krippendorff_alpha"
)

// IRRResult is the outcome of an inter-rater reliability calculation
type IRRResult struct {
	WorkshopID     uuid.UUID          `json:"workshopId"`
	Score          float64            `json:"score"`
	Metric         IRRMetric          `json:"metric"`
	Interpretation string             `json:"interpretation"`
	ReadyToProceed bool               `json:"readyToProceed"`
	PerQuestion    map[string]float64 `json:"perQuestion,omitempty"`
	NumRaters      int                `json:"numRaters"`
	NumAnnotations int                `json:"numAnnotations"`
	Suggestions    []string           `json:"suggestions,omitempty"`
	CalculatedAt   time.Time          `json:"calculatedAt"`
}
