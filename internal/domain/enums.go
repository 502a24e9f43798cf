package domain

// WorkshopStatus represents the administrative status of a workshop
type WorkshopStatus string

const (
	WorkshopStatusActive    WorkshopStatus = "active"
	WorkshopStatusCompleted WorkshopStatus = "completed"
	WorkshopStatusCancelled WorkshopStatus = "cancelled"
)

// IsValid checks if the workshop status is valid
func (s WorkshopStatus) IsValid() bool {
	switch s {
	case WorkshopStatusActive, WorkshopStatusCompleted, WorkshopStatusCancelled:
		return true
	}
	return false
}

// UserRole represents a participant's role in a workshop
type UserRole string

const (
	RoleFacilitator UserRole = "facilitator"
	RoleSME         UserRole = "sme"
	RoleParticipant UserRole = "participant"
)

// IsValid checks if the user role is valid
func (r UserRole) IsValid() bool {
	switch r {
	case RoleFacilitator, RoleSME, RoleParticipant:
		return true
	}
	return false
}

// EventType labels entries in the workshop event log and the SSE stream
type EventType string

const (
	EventPhaseChanged    EventType = "phase.changed"
	EventPhaseCompleted  EventType = "phase.completed"
	EventPhaseResumed    EventType = "phase.resumed"
	EventTracesAdded     EventType = "traces.added"
	EventTracesReordered EventType = "traces.reordered"
	EventTracesIngested  EventType = "traces.ingested"
	EventAnnotationSaved EventType = "annotation.saved"
	EventFindingSaved    EventType = "finding.saved"
	EventRubricChanged   EventType = "rubric.changed"

	// Administrative resets
	EventFindingsCleared    EventType = "findings.cleared"
	EventAnnotationsCleared EventType = "annotations.cleared"
	EventExportCompleted EventType = "export.completed"
)
