package domain

// IntakeRequest configures a pull of traces from an external trace server
type IntakeRequest struct {
	Host         string `json:"host" validate:"required,url"`
	Token        string `json:"token,omitempty"`
	ExperimentID string `json:"experimentId" validate:"required"`
	MaxTraces    int    `json:"maxTraces,omitempty" validate:"omitempty,min=1,max=1000"`
	Filter       string `json:"filter,omitempty"`
}

// ExternalTrace is a trace as returned by an external trace server,
// before it is normalized into a workshop Trace
type ExternalTrace struct {
	TraceID      string         `json:"traceId"`
	Input        string         `json:"input"`
	Output       string         `json:"output"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	URL          string         `json:"url,omitempty"`
	ExperimentID string         `json:"experimentId,omitempty"`
}

// IntakeResult reports the outcome of an intake run
type IntakeResult struct {
	TracesIngested int    `json:"tracesIngested"`
	TracesSkipped  int    `json:"tracesSkipped"`
	ExperimentID   string `json:"experimentId"`
	Host           string `json:"host"`
}
