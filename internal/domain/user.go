package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a workshop participant
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Role         UserRole   `json:"role"`
	WorkshopID   uuid.UUID  `json:"workshopId"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastActive   *time.Time `json:"lastActive,omitempty"`
}

// UserInput represents input for registering a user
type UserInput struct {
	Email      string    `json:"email" validate:"required,email"`
	Name       string    `json:"name" validate:"required"`
	Role       UserRole  `json:"role" validate:"required"`
	WorkshopID uuid.UUID `json:"workshopId" validate:"required"`
	Password   string    `json:"password,omitempty" validate:"omitempty,min=8"`
}

// Permissions describes what a role may do in a workshop. Facilitators run
// the workshop but do not contribute findings or annotations; SMEs and
// participants contribute but see only their own work.
type Permissions struct {
	CanViewDiscovery      bool `json:"canViewDiscovery"`
	CanCreateFindings     bool `json:"canCreateFindings"`
	CanViewAllFindings    bool `json:"canViewAllFindings"`
	CanCreateRubric       bool `json:"canCreateRubric"`
	CanViewRubric         bool `json:"canViewRubric"`
	CanAnnotate           bool `json:"canAnnotate"`
	CanViewAllAnnotations bool `json:"canViewAllAnnotations"`
	CanViewResults        bool `json:"canViewResults"`
	CanManageWorkshop     bool `json:"canManageWorkshop"`
}

// PermissionsForRole returns the permission set for a role
func PermissionsForRole(role UserRole) Permissions {
	switch role {
	case RoleFacilitator:
		return Permissions{
			CanViewDiscovery:      true,
			CanViewAllFindings:    true,
			CanCreateRubric:       true,
			CanViewRubric:         true,
			CanViewAllAnnotations: true,
			CanViewResults:        true,
			CanManageWorkshop:     true,
		}
	default: // SME and participant share the contributor permission set
		return Permissions{
			CanViewDiscovery:  true,
			CanCreateFindings: true,
			CanAnnotate:       true,
		}
	}
}
