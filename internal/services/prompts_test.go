package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/H-H-E/vercelchat/internal/models"
)

type stubPromptStore struct {
	prompts []*models.Prompt
}

func (s *stubPromptStore) Create(ctx context.Context, prompt *models.Prompt) error {
	prompt.ID = uuid.New()
	prompt.CreatedAt = time.Now()
	prompt.UpdatedAt = prompt.CreatedAt
	copied := *prompt
	// Newest first, matching the repository ordering
	s.prompts = append([]*models.Prompt{&copied}, s.prompts...)
	return nil
}

func (s *stubPromptStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Prompt, error) {
	for _, p := range s.prompts {
		if p.ID == id {
			copied := *p
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubPromptStore) List(ctx context.Context) ([]*models.Prompt, error) {
	return s.prompts, nil
}

func (s *stubPromptStore) ListActive(ctx context.Context) ([]*models.Prompt, error) {
	active := make([]*models.Prompt, 0)
	for _, p := range s.prompts {
		if p.IsActive {
			active = append(active, p)
		}
	}
	return active, nil
}

func (s *stubPromptStore) Update(ctx context.Context, id uuid.UUID, req models.UpdatePromptRequest) (*models.Prompt, error) {
	for _, p := range s.prompts {
		if p.ID != id {
			continue
		}
		if req.Name != nil {
			p.Name = *req.Name
		}
		if req.Content != nil {
			p.Content = *req.Content
		}
		if req.IsActive != nil {
			p.IsActive = *req.IsActive
		}
		p.UpdatedAt = time.Now()
		copied := *p
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *stubPromptStore) Delete(ctx context.Context, id uuid.UUID) error {
	for i, p := range s.prompts {
		if p.ID == id {
			s.prompts = append(s.prompts[:i], s.prompts[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

type stubIdentity struct{}

func (stubIdentity) Identity() (string, string) { return "Pete", "AI tutor" }

func newPromptService() (*PromptService, *stubPromptStore) {
	store := &stubPromptStore{}
	return NewPromptService(store, stubIdentity{}), store
}

func TestPromptService_Create_Validation(t *testing.T) {
	svc, _ := newPromptService()

	tests := []struct {
		name  string
		req   models.CreatePromptRequest
		field string
	}{
		{"empty content", models.CreatePromptRequest{Name: "Tone", Content: ""}, "content"},
		{"empty name", models.CreatePromptRequest{Name: "", Content: "Be concise."}, "name"},
		{"name too long", models.CreatePromptRequest{Name: strings.Repeat("x", 256), Content: "Be concise."}, "name"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.req)
			vErr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if _, present := vErr.Fields[tc.field]; !present {
				t.Errorf("Expected field error for %q, got %v", tc.field, vErr.Fields)
			}
		})
	}
}

func TestPromptService_Create_DefaultsToActive(t *testing.T) {
	svc, _ := newPromptService()

	prompt, err := svc.Create(context.Background(), models.CreatePromptRequest{Name: "Tone", Content: "Be concise."})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !prompt.IsActive {
		t.Error("Expected prompt to default to active")
	}
}

func TestPromptService_Update_NotFound(t *testing.T) {
	svc, _ := newPromptService()

	_, err := svc.Update(context.Background(), uuid.New(), models.UpdatePromptRequest{Name: strPtr("Renamed")})
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}

func TestPromptService_Delete_Twice(t *testing.T) {
	svc, _ := newPromptService()

	prompt, err := svc.Create(context.Background(), models.CreatePromptRequest{Name: "Tone", Content: "Be concise."})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Delete(context.Background(), prompt.ID); err != nil {
		t.Fatalf("First delete failed: %v", err)
	}

	err = svc.Delete(context.Background(), prompt.ID)
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("Second delete should report NotFound, got %v", err)
	}
}

func TestComposeSystemPrompt_IncludesOnlyActivePrompts(t *testing.T) {
	svc, _ := newPromptService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, models.CreatePromptRequest{Name: "Tone", Content: "Be concise.", IsActive: boolPtr(true)}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(ctx, models.CreatePromptRequest{Name: "Off", Content: "NEVER INCLUDED", IsActive: boolPtr(false)}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	composed, err := svc.ComposeSystemPrompt(ctx)
	if err != nil {
		t.Fatalf("ComposeSystemPrompt failed: %v", err)
	}

	if !strings.Contains(composed, "Be concise.") {
		t.Error("Expected active prompt content in composed system prompt")
	}
	if strings.Contains(composed, "NEVER INCLUDED") {
		t.Error("Inactive prompt content must not appear in composed system prompt")
	}
	if !strings.Contains(composed, "You are Pete, AI tutor") {
		t.Errorf("Expected persona block with configured identity, got %q", composed[:80])
	}
}

func TestComposeSystemPrompt_ReflectsToggle(t *testing.T) {
	svc, _ := newPromptService()
	ctx := context.Background()

	prompt, err := svc.Create(ctx, models.CreatePromptRequest{Name: "Tone", Content: "Be concise.", IsActive: boolPtr(true)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	prompts, err := svc.List(ctx)
	if err != nil || len(prompts) != 1 {
		t.Fatalf("Expected one listed prompt, got %d (err %v)", len(prompts), err)
	}

	composed, _ := svc.ComposeSystemPrompt(ctx)
	if !strings.Contains(composed, "Be concise.") {
		t.Fatal("Expected content present while active")
	}

	if _, err := svc.Update(ctx, prompt.ID, models.UpdatePromptRequest{IsActive: boolPtr(false)}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	composed, _ = svc.ComposeSystemPrompt(ctx)
	if strings.Contains(composed, "Be concise.") {
		t.Error("Expected content gone after deactivation")
	}
}
