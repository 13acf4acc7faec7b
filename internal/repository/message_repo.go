package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/H-H-E/vercelchat/internal/models"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, msg *models.Message) error {
	parts, err := json.Marshal(msg.Parts)
	if err != nil {
		return err
	}
	attachments := msg.Attachments
	if len(attachments) == 0 {
		attachments = json.RawMessage("[]")
	}

	query := `
		INSERT INTO messages (id, chat_id, role, parts, attachments)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		msg.ID, msg.ChatID, msg.Role, parts, attachments,
	).Scan(&msg.CreatedAt)
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	msg := &models.Message{}
	var parts []byte
	query := `SELECT id, chat_id, role, parts, attachments, created_at
		FROM messages WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.ChatID, &msg.Role, &parts, &msg.Attachments, &msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(parts, &msg.Parts); err != nil {
		return nil, err
	}
	return msg, nil
}

// Delete is idempotent: removing an id that no longer exists is not an error.
func (r *MessageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM messages WHERE id = $1", id)
	return err
}
