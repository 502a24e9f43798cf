package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims are the claims embedded in a session token
type JWTClaims struct {
	UserID     string `json:"userId"`
	WorkshopID string `json:"workshopId"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// AuthResult is the outcome of a successful login or registration
type AuthResult struct {
	User        *User       `json:"user"`
	Token       string      `json:"token"`
	ExpiresAt   time.Time   `json:"expiresAt"`
	Permissions Permissions `json:"permissions"`
}
