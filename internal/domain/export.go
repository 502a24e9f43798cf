package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExportFormat names a workshop archive serialization
type ExportFormat string

const (
	ExportFormatJSON ExportFormat = "json"
	ExportFormatCSV  ExportFormat = "csv"
)

// ExportOptions selects which workshop artifacts go into an archive
type ExportOptions struct {
	Format             ExportFormat `json:"format"`
	IncludeTraces      bool         `json:"includeTraces"`
	IncludeAnnotations bool         `json:"includeAnnotations"`
	IncludeRubric      bool         `json:"includeRubric"`
	IncludeJudge       bool         `json:"includeJudge"`
}

// ExportResult describes a completed workshop archive
type ExportResult struct {
	WorkshopID uuid.UUID    `json:"workshopId"`
	Bucket     string       `json:"bucket"`
	Path       string       `json:"path"`
	Format     ExportFormat `json:"format"`
	SizeBytes  int          `json:"sizeBytes"`
	ExportedAt time.Time    `json:"exportedAt"`
}
