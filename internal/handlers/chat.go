package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/H-H-E/vercelchat/internal/middleware"
	"github.com/H-H-E/vercelchat/internal/models"
	"github.com/H-H-E/vercelchat/internal/services"
)

type messageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type systemPromptComposer interface {
	ComposeSystemPrompt(ctx context.Context) (string, error)
}

type chatSettings interface {
	APIKey() string
	DefaultModel() string
}

// ChatHandler proxies chat completions to the upstream service, relaying
// the token stream to the caller as it arrives and persisting the
// finished assistant message once the stream ends.
type ChatHandler struct {
	messages        messageStore
	composer        systemPromptComposer
	settings        chatSettings
	openai          *services.OpenAIClient
	upstreamTimeout time.Duration
}

func NewChatHandler(messages messageStore, composer systemPromptComposer, settings chatSettings, openai *services.OpenAIClient, upstreamTimeout time.Duration) *ChatHandler {
	return &ChatHandler{
		messages:        messages,
		composer:        composer,
		settings:        settings,
		openai:          openai,
		upstreamTimeout: upstreamTimeout,
	}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Authentication required", r))
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if len(req.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Messages are required", r))
		return
	}

	model := req.SelectedChatModel
	if model == "" {
		model = h.settings.DefaultModel()
	}

	// A preview token overrides the configured key for this request only
	apiKey := h.settings.APIKey()
	if req.PreviewToken != nil && *req.PreviewToken != "" {
		apiKey = *req.PreviewToken
	}

	systemPrompt, err := h.composer.ComposeSystemPrompt(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	upstreamMessages := make([]models.ChatMessage, 0, len(req.Messages)+1)
	upstreamMessages = append(upstreamMessages, models.ChatMessage{Role: "system", Content: systemPrompt})
	upstreamMessages = append(upstreamMessages, req.Messages...)

	// The request context carries caller disconnects; the timeout bounds
	// how long the upstream connection may stay open.
	ctx, cancel := context.WithTimeout(r.Context(), h.upstreamTimeout)
	defer cancel()

	stream, err := h.openai.StreamCompletion(ctx, services.CompletionRequest{
		Model:    model,
		APIKey:   apiKey,
		Messages: upstreamMessages,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)

	// Relay each SSE line through unmodified while accumulating the
	// assistant text from the delta payloads.
	var assistantText strings.Builder
	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
			// Caller went away; abandon the upstream stream
			return
		}
		if flusher != nil {
			flusher.Flush()
		}

		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		text, done := services.ParseStreamDelta(strings.TrimPrefix(line, "data: "))
		if done {
			break
		}
		assistantText.WriteString(text)
	}

	if err := scanner.Err(); err != nil {
		// Upstream died mid-stream; the reply is incomplete, drop it
		log.Printf("chat stream broken for user %s: %v", userID, err)
		return
	}
	if ctx.Err() != nil {
		// Timed out or the caller disconnected mid-stream; the partial
		// text is dropped rather than persisted
		log.Printf("chat stream aborted for user %s: %v", userID, ctx.Err())
		return
	}

	h.persistAssistantMessage(assistantText.String())
}

// persistAssistantMessage writes the completed reply exactly once. The
// stream has already been delivered, so failures are logged, not
// surfaced.
func (h *ChatHandler) persistAssistantMessage(content string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg := &models.Message{
		ID:     uuid.New(),
		ChatID: uuid.New(),
		Role:   "assistant",
		Parts:  []models.MessagePart{{Type: "text", Text: content}},
	}
	if err := h.messages.Create(ctx, msg); err != nil {
		log.Printf("failed to persist assistant message %s: %v", msg.ID, err)
	}
}

func (h *ChatHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Authentication required", r))
		return
	}

	idStr := r.URL.Query().Get("id")
	if idStr == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Missing id", r))
		return
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid id", r))
		return
	}

	// Deleting an id that is already gone still succeeds
	if err := h.messages.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
