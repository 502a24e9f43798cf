package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/evalworkshop/evalworkshop/api/internal/config"
	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	apperrors "github.com/evalworkshop/evalworkshop/api/internal/pkg/errors"
)

// AuthService handles participant registration and session tokens. Accounts
// are scoped to a single workshop: the same email can join several workshops
// as separate participants.
type AuthService struct {
	cfg       *config.Config
	users     UserRepository
	workshops WorkshopRepository
}

// NewAuthService creates a new auth service
func NewAuthService(cfg *config.Config, users UserRepository, workshops WorkshopRepository) *AuthService {
	return &AuthService{cfg: cfg, users: users, workshops: workshops}
}

// Register creates a participant account in a workshop. The first
// facilitator to register becomes the workshop's facilitator of record.
func (s *AuthService) Register(ctx context.Context, input *domain.UserInput) (*domain.AuthResult, error) {
	workshop, err := s.workshops.GetByID(ctx, input.WorkshopID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.users.GetByEmail(ctx, input.WorkshopID, input.Email); err == nil && existing != nil {
		return nil, apperrors.Validation("email already registered in this workshop")
	} else if err != nil && !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if !input.Role.IsValid() {
		return nil, apperrors.Validation("unknown participant role: " + string(input.Role))
	}

	user := &domain.User{
		ID:         uuid.New(),
		Email:      input.Email,
		Name:       input.Name,
		Role:       input.Role,
		WorkshopID: input.WorkshopID,
		CreatedAt:  time.Now(),
	}

	if input.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if user.Role == domain.RoleFacilitator && workshop.FacilitatorID == uuid.Nil {
		workshop.FacilitatorID = user.ID
		if err := s.workshops.Update(ctx, workshop); err != nil {
			return nil, fmt.Errorf("failed to bind facilitator: %w", err)
		}
	}

	return s.authResult(user)
}

// Login authenticates a participant within a workshop
func (s *AuthService) Login(ctx context.Context, workshopID uuid.UUID, email, password string) (*domain.AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, workshopID, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Workshops may run without passwords; an account created without one
	// accepts any login for its email.
	if user.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			return nil, apperrors.Unauthorized("invalid credentials")
		}
	}

	if err := s.users.TouchLastActive(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}

	return s.authResult(user)
}

// ValidateToken validates a session token and returns its claims
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*domain.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &domain.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWT.Secret), nil
	})
	if err != nil {
		return nil, apperrors.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(*domain.JWTClaims)
	if !ok || !token.Valid {
		return nil, apperrors.Unauthorized("invalid token")
	}
	return claims, nil
}

// GetUser retrieves a participant by ID
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AuthService) authResult(user *domain.User) (*domain.AuthResult, error) {
	expiresAt := time.Now().Add(time.Duration(s.cfg.JWT.ExpiryHours) * time.Hour)

	claims := &domain.JWTClaims{
		UserID:     user.ID.String(),
		WorkshopID: user.WorkshopID.String(),
		Email:      user.Email,
		Role:       string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.cfg.JWT.Issuer,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &domain.AuthResult{
		User:        user,
		Token:       token,
		ExpiresAt:   expiresAt,
		Permissions: domain.PermissionsForRole(user.Role),
	}, nil
}
