package dto

// CreateWorkshopRequest represents the request to create a workshop
type CreateWorkshopRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description,omitempty"`
}

// UpdateWorkshopRequest represents the request to update a workshop
type UpdateWorkshopRequest struct {
	Name        string `json:"name,omitempty" validate:"omitempty,max=200"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty" validate:"omitempty,oneof=active completed cancelled"`
}

// SetPhaseRequest represents a direct phase change request
type SetPhaseRequest struct {
	Phase string `json:"phase" validate:"required"`
}

// CompletePhaseRequest marks a phase as completed for a workshop
type CompletePhaseRequest struct {
	Phase string `json:"phase" validate:"required"`
}
