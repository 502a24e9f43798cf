package dto

// UploadTraceRequest represents one trace to add to a workshop pool
type UploadTraceRequest struct {
	Input    string         `json:"input" validate:"required"`
	Output   string         `json:"output" validate:"required"`
	Context  map[string]any `json:"context,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// UploadTracesRequest represents a batch trace upload
type UploadTracesRequest struct {
	Traces []UploadTraceRequest `json:"traces" validate:"required,min=1,max=500,dive"`
}

// StartDiscoveryRequest begins the discovery phase with a bounded trace set
type StartDiscoveryRequest struct {
	TraceLimit int `json:"traceLimit,omitempty" validate:"omitempty,min=1"`
}

// StartAnnotationRequest begins the annotation phase with a sampled trace
// set. A limit of -1 means the whole pool.
type StartAnnotationRequest struct {
	TraceLimit int `json:"traceLimit,omitempty" validate:"omitempty,min=-1"`
}

// AddTracesRequest grows the named phase's active set
type AddTracesRequest struct {
	Phase           string `json:"phase" validate:"required"`
	AdditionalCount int    `json:"additionalCount" validate:"required"`
}
