package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/H-H-E/vercelchat/internal/models"
)

type PromptRepo struct {
	pool *pgxpool.Pool
}

func NewPromptRepo(pool *pgxpool.Pool) *PromptRepo {
	return &PromptRepo{pool: pool}
}

func (r *PromptRepo) Create(ctx context.Context, prompt *models.Prompt) error {
	query := `
		INSERT INTO custom_prompts (id, name, content, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	prompt.ID = uuid.New()

	return r.pool.QueryRow(ctx, query,
		prompt.ID, prompt.Name, prompt.Content, prompt.IsActive,
	).Scan(&prompt.CreatedAt, &prompt.UpdatedAt)
}

func (r *PromptRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Prompt, error) {
	p := &models.Prompt{}
	query := `SELECT id, name, content, is_active, created_at, updated_at
		FROM custom_prompts WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Content, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PromptRepo) List(ctx context.Context) ([]*models.Prompt, error) {
	query := `SELECT id, name, content, is_active, created_at, updated_at
		FROM custom_prompts ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prompts := make([]*models.Prompt, 0)
	for rows.Next() {
		p := &models.Prompt{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Content, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}

// ListActive returns the prompts included in system-prompt composition,
// newest first to match the listing order.
func (r *PromptRepo) ListActive(ctx context.Context) ([]*models.Prompt, error) {
	query := `SELECT id, name, content, is_active, created_at, updated_at
		FROM custom_prompts WHERE is_active = TRUE ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prompts := make([]*models.Prompt, 0)
	for rows.Next() {
		p := &models.Prompt{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Content, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}

// Update applies a partial update; nil fields keep their stored values.
func (r *PromptRepo) Update(ctx context.Context, id uuid.UUID, req models.UpdatePromptRequest) (*models.Prompt, error) {
	p := &models.Prompt{}
	query := `
		UPDATE custom_prompts
		SET name = COALESCE($2, name),
			content = COALESCE($3, content),
			is_active = COALESCE($4, is_active),
			updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, content, is_active, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, id, req.Name, req.Content, req.IsActive).Scan(
		&p.ID, &p.Name, &p.Content, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PromptRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM custom_prompts WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
