package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ChatMessage is a single turn in the conversation sent by the client.
type ChatMessage struct {
	Role    string `json:"role"` // "system" | "user" | "assistant"
	Content string `json:"content"`
}

// ChatRequest is the payload accepted by POST /chat.
type ChatRequest struct {
	Messages          []ChatMessage `json:"messages"`
	PreviewToken      *string       `json:"previewToken"`
	SelectedChatModel string        `json:"selectedChatModel"`
}

// MessagePart mirrors the structured content stored per message.
type MessagePart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Message is the persisted record of a completed assistant reply.
type Message struct {
	ID          uuid.UUID       `json:"id"`
	ChatID      uuid.UUID       `json:"chatId"`
	Role        string          `json:"role"`
	Parts       []MessagePart   `json:"parts"`
	Attachments json.RawMessage `json:"attachments"`
	CreatedAt   time.Time       `json:"createdAt"`
}
