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

// JudgeRepository handles judge prompt and evaluation operations in PostgreSQL
type JudgeRepository struct {
	db *database.PostgresDB
}

// NewJudgeRepository creates a new judge repository
func NewJudgeRepository(db *database.PostgresDB) *JudgeRepository {
	return &JudgeRepository{db: db}
}

// CreatePrompt stores a judge prompt, assigning the next version number
// within the workshop
func (r *JudgeRepository) CreatePrompt(ctx context.Context, prompt *domain.JudgePrompt) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM judge_prompts WHERE workshop_id = $1`,
		prompt.WorkshopID).Scan(&prompt.Version)
	if err != nil {
		return fmt.Errorf("failed to read prompt version: %w", err)
	}

	query := `
		INSERT INTO judge_prompts (id, workshop_id, prompt_text, version, few_shot_examples, model_name, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = tx.Exec(ctx, query,
		prompt.ID,
		prompt.WorkshopID,
		prompt.PromptText,
		prompt.Version,
		prompt.FewShotExamples,
		prompt.ModelName,
		prompt.CreatedBy,
		prompt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create judge prompt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit judge prompt: %w", err)
	}

	return nil
}

// GetPrompt retrieves a judge prompt by ID
func (r *JudgeRepository) GetPrompt(ctx context.Context, id uuid.UUID) (*domain.JudgePrompt, error) {
	query := `
		SELECT id, workshop_id, prompt_text, version, few_shot_examples, model_name, created_by, created_at
		FROM judge_prompts
		WHERE id = $1
	`

	var p domain.JudgePrompt
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.WorkshopID,
		&p.PromptText,
		&p.Version,
		&p.FewShotExamples,
		&p.ModelName,
		&p.CreatedBy,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("judge prompt")
		}
		return nil, fmt.Errorf("failed to get judge prompt: %w", err)
	}

	return &p, nil
}

// ListPrompts retrieves all judge prompts for a workshop, newest version first
func (r *JudgeRepository) ListPrompts(ctx context.Context, workshopID uuid.UUID) ([]domain.JudgePrompt, error) {
	query := `
		SELECT id, workshop_id, prompt_text, version, few_shot_examples, model_name, created_by, created_at
		FROM judge_prompts
		WHERE workshop_id = $1
		ORDER BY version DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, workshopID)
	if err != nil {
		return nil, fmt.Errorf("failed to list judge prompts: %w", err)
	}
	defer rows.Close()

	var prompts []domain.JudgePrompt
	for rows.Next() {
		var p domain.JudgePrompt
		err := rows.Scan(
			&p.ID,
			&p.WorkshopID,
			&p.PromptText,
			&p.Version,
			&p.FewShotExamples,
			&p.ModelName,
			&p.CreatedBy,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan judge prompt: %w", err)
		}
		prompts = append(prompts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate judge prompts: %w", err)
	}

	return prompts, nil
}

// SaveEvaluations replaces the stored evaluations for a prompt
func (r *JudgeRepository) SaveEvaluations(ctx context.Context, promptID uuid.UUID, evaluations []domain.JudgeEvaluation) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM judge_evaluations WHERE prompt_id = $1`, promptID); err != nil {
		return fmt.Errorf("failed to clear judge evaluations: %w", err)
	}

	query := `
		INSERT INTO judge_evaluations (id, workshop_id, prompt_id, trace_id, predicted_rating, human_rating, reasoning)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, e := range evaluations {
		_, err := tx.Exec(ctx, query,
			e.ID,
			e.WorkshopID,
			e.PromptID,
			e.TraceID,
			e.PredictedRating,
			e.HumanRating,
			e.Reasoning,
		)
		if err != nil {
			return fmt.Errorf("failed to insert judge evaluation: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit judge evaluations: %w", err)
	}

	return nil
}

// ListEvaluations retrieves the evaluations for a prompt
func (r *JudgeRepository) ListEvaluations(ctx context.Context, promptID uuid.UUID) ([]domain.JudgeEvaluation, error) {
	query := `
		SELECT id, workshop_id, prompt_id, trace_id, predicted_rating, human_rating, reasoning
		FROM judge_evaluations
		WHERE prompt_id = $1
	`

	rows, err := r.db.Pool.Query(ctx, query, promptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list judge evaluations: %w", err)
	}
	defer rows.Close()

	var evaluations []domain.JudgeEvaluation
	for rows.Next() {
		var e domain.JudgeEvaluation
		err := rows.Scan(
			&e.ID,
			&e.WorkshopID,
			&e.PromptID,
			&e.TraceID,
			&e.PredictedRating,
			&e.HumanRating,
			&e.Reasoning,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan judge evaluation: %w", err)
		}
		evaluations = append(evaluations, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate judge evaluations: %w", err)
	}

	return evaluations, nil
}
