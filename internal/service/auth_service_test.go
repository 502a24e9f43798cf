package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalworkshop/evalworkshop/api/internal/config"
	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	apperrors "github.com/evalworkshop/evalworkshop/api/internal/pkg/errors"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := *user
	r.users[user.ID] = &u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, workshopID uuid.UUID, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.WorkshopID == workshopID && strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

func (r *fakeUserRepo) ListByWorkshop(_ context.Context, workshopID uuid.UUID) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if u.WorkshopID == workshopID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) TouchLastActive(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		now := time.Now()
		u.LastActive = &now
	}
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *phaseFixture) {
	t.Helper()
	f := newPhaseFixture(t, 0, domain.PhaseIntake)
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpiryHours = 24
	cfg.JWT.Issuer = "evalworkshop"
	return NewAuthService(cfg, newFakeUserRepo(), f.workshops), f
}

func TestAuthRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, f := newAuthFixture(t)

	res, err := svc.Register(ctx, &domain.UserInput{
		Email:      "ana@example.com",
		Name:       "Ana",
		Role:       domain.RoleSME,
		WorkshopID: f.workshopID,
		Password:   "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, domain.RoleSME, res.User.Role)
	assert.True(t, res.Permissions.CanAnnotate)
	assert.False(t, res.Permissions.CanManageWorkshop)

	login, err := svc.Login(ctx, f.workshopID, "ana@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	_, err = svc.Login(ctx, f.workshopID, "ana@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestAuthRegisterRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, f := newAuthFixture(t)

	input := &domain.UserInput{
		Email:      "dup@example.com",
		Name:       "First",
		Role:       domain.RoleParticipant,
		WorkshopID: f.workshopID,
	}
	_, err := svc.Register(ctx, input)
	require.NoError(t, err)

	_, err = svc.Register(ctx, input)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestAuthRegisterUnknownWorkshop(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthFixture(t)

	_, err := svc.Register(ctx, &domain.UserInput{
		Email:      "x@example.com",
		Name:       "X",
		Role:       domain.RoleFacilitator,
		WorkshopID: uuid.New(),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAuthPasswordlessLogin(t *testing.T) {
	ctx := context.Background()
	svc, f := newAuthFixture(t)

	_, err := svc.Register(ctx, &domain.UserInput{
		Email:      "open@example.com",
		Name:       "Open",
		Role:       domain.RoleParticipant,
		WorkshopID: f.workshopID,
	})
	require.NoError(t, err)

	login, err := svc.Login(ctx, f.workshopID, "open@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "open@example.com", login.User.Email)
}

func TestAuthValidateToken(t *testing.T) {
	ctx := context.Background()
	svc, f := newAuthFixture(t)

	res, err := svc.Register(ctx, &domain.UserInput{
		Email:      "fac@example.com",
		Name:       "Fac",
		Role:       domain.RoleFacilitator,
		WorkshopID: f.workshopID,
	})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID.String(), claims.UserID)
	assert.Equal(t, f.workshopID.String(), claims.WorkshopID)
	assert.Equal(t, string(domain.RoleFacilitator), claims.Role)

	_, err = svc.ValidateToken(ctx, res.Token+"tampered")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
}
