package models

import (
	"time"

	"github.com/google/uuid"
)

// Prompt is a named instruction block an admin can toggle into the
// composed system prompt.
type Prompt struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreatePromptRequest struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	IsActive *bool  `json:"isActive"`
}

type UpdatePromptRequest struct {
	Name     *string `json:"name"`
	Content  *string `json:"content"`
	IsActive *bool   `json:"isActive"`
}
