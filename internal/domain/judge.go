package domain

import (
	"time"

	"github.com/google/uuid"
)

// JudgePrompt is one version of an automated-judge prompt for a workshop
type JudgePrompt struct {
	ID              uuid.UUID `json:"id"`
	WorkshopID      uuid.UUID `json:"workshopId"`
	PromptText      string    `json:"promptText"`
	Version         int       `json:"version"`
	FewShotExamples []string  `json:"fewShotExamples"`
	ModelName       string    `json:"modelName"`
	CreatedBy       uuid.UUID `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
}

// JudgePromptInput represents input for creating a judge prompt
type JudgePromptInput struct {
	PromptText      string    `json:"promptText" validate:"required"`
	FewShotExamples []string  `json:"fewShotExamples,omitempty"`
	ModelName       string    `json:"modelName,omitempty"`
	CreatedBy       uuid.UUID `json:"createdBy" validate:"required"`
}

// JudgeEvaluation is the judge's verdict on a single trace, paired with the
// consensus human rating for comparison
type JudgeEvaluation struct {
	ID              uuid.UUID `json:"id"`
	WorkshopID      uuid.UUID `json:"workshopId"`
	PromptID        uuid.UUID `json:"promptId"`
	TraceID         string    `json:"traceId"`
	PredictedRating int       `json:"predictedRating"`
	HumanRating     int       `json:"humanRating"`
	Reasoning       string    `json:"reasoning,omitempty"`
}

// JudgePerformance summarizes how a judge prompt tracks human ratings
type JudgePerformance struct {
	PromptID          uuid.UUID          `json:"promptId"`
	Agreement         float64            `json:"agreement"`
	Accuracy          float64            `json:"accuracy"`
	AgreementByRating map[string]float64 `json:"agreementByRating"`
	ConfusionMatrix   [][]int            `json:"confusionMatrix"`
	TotalEvaluations  int                `json:"totalEvaluations"`
}

// JudgeEvaluationResult bundles metrics with individual evaluations
type JudgeEvaluationResult struct {
	Metrics     JudgePerformance  `json:"metrics"`
	Evaluations []JudgeEvaluation `json:"evaluations"`
}
