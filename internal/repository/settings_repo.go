package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/H-H-E/vercelchat/internal/models"
)

// SettingsRepo persists the single application settings row (id = 1).
type SettingsRepo struct {
	pool *pgxpool.Pool
}

func NewSettingsRepo(pool *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

func (r *SettingsRepo) Get(ctx context.Context) (*models.AppSettings, error) {
	s := &models.AppSettings{}
	query := `SELECT openai_api_key, default_chat_model, ai_name, ai_description, show_artifacts, updated_at
		FROM app_settings WHERE id = 1`

	err := r.pool.QueryRow(ctx, query).Scan(
		&s.OpenAIAPIKey, &s.DefaultChatModel, &s.AIName, &s.AIDescription, &s.ShowArtifacts, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SettingsRepo) Upsert(ctx context.Context, s *models.AppSettings) error {
	query := `
		INSERT INTO app_settings (id, openai_api_key, default_chat_model, ai_name, ai_description, show_artifacts, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE
		SET openai_api_key = $1, default_chat_model = $2, ai_name = $3,
			ai_description = $4, show_artifacts = $5, updated_at = NOW()
		RETURNING updated_at`

	return r.pool.QueryRow(ctx, query,
		s.OpenAIAPIKey, s.DefaultChatModel, s.AIName, s.AIDescription, s.ShowArtifacts,
	).Scan(&s.UpdatedAt)
}
