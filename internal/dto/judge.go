package dto

// CreateJudgePromptRequest represents a new judge prompt version
type CreateJudgePromptRequest struct {
	PromptText      string   `json:"promptText" validate:"required"`
	FewShotExamples []string `json:"fewShotExamples,omitempty"`
	ModelName       string   `json:"modelName,omitempty"`
}

// EvaluateJudgeRequest runs a judge prompt against annotated traces.
// TraceIDs narrows the evaluation to a subset; empty means all.
type EvaluateJudgeRequest struct {
	PromptID string   `json:"promptId" validate:"required,uuid"`
	TraceIDs []string `json:"traceIds,omitempty"`
}

// IntakeTracesRequest pulls traces from an external trace server
type IntakeTracesRequest struct {
	Host         string `json:"host" validate:"required,url"`
	Token        string `json:"token,omitempty"`
	ExperimentID string `json:"experimentId" validate:"required"`
	MaxTraces    int    `json:"maxTraces,omitempty" validate:"omitempty,min=1,max=1000"`
	Filter       string `json:"filter,omitempty"`
}

// ExportWorkshopRequest archives workshop artifacts to object storage
type ExportWorkshopRequest struct {
	Format             string `json:"format,omitempty" validate:"omitempty,oneof=json csv"`
	IncludeTraces      bool   `json:"includeTraces"`
	IncludeAnnotations bool   `json:"includeAnnotations"`
	IncludeRubric      bool   `json:"includeRubric"`
	IncludeJudge       bool   `json:"includeJudge"`
}
