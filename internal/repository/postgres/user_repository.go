package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/database"
	apperrors "github.com/evalworkshop/evalworkshop/api/internal/pkg/errors"
)

// UserRepository handles user data operations in PostgreSQL
type UserRepository struct {
	db *database.PostgresDB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.PostgresDB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, name, role, workshop_id, password_hash, created_at, last_active`

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, name, role, workshop_id, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Role,
		user.WorkshopID,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user domain.User
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.WorkshopID,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.LastActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetByEmail retrieves a user by email within a workshop
func (r *UserRepository) GetByEmail(ctx context.Context, workshopID uuid.UUID, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE workshop_id = $1 AND email = $2`

	var user domain.User
	err := r.db.Pool.QueryRow(ctx, query, workshopID, email).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.WorkshopID,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.LastActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// ListByWorkshop retrieves a workshop's users
func (r *UserRepository) ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE workshop_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.Pool.Query(ctx, query, workshopID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		err := rows.Scan(
			&u.ID,
			&u.Email,
			&u.Name,
			&u.Role,
			&u.WorkshopID,
			&u.PasswordHash,
			&u.CreatedAt,
			&u.LastActive,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// TouchLastActive records the user's most recent activity
func (r *UserRepository) TouchLastActive(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE users SET last_active = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to update last active: %w", err)
	}

	return nil
}
