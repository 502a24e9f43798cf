package dto

// LoginRequest represents the login request payload. The workshop comes
// from the URL; a password is only checked when the account has one.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password,omitempty"`
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=facilitator sme participant"`
	Password string `json:"password,omitempty" validate:"omitempty,min=8"`
}
