package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/H-H-E/vercelchat/internal/models"
)

// PromptStore is the persistence surface for custom prompts.
type PromptStore interface {
	Create(ctx context.Context, prompt *models.Prompt) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Prompt, error)
	List(ctx context.Context) ([]*models.Prompt, error)
	ListActive(ctx context.Context) ([]*models.Prompt, error)
	Update(ctx context.Context, id uuid.UUID, req models.UpdatePromptRequest) (*models.Prompt, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AssistantIdentity supplies the configured assistant name and
// description for the persona block.
type AssistantIdentity interface {
	Identity() (name, description string)
}

type PromptService struct {
	prompts  PromptStore
	identity AssistantIdentity
}

func NewPromptService(prompts PromptStore, identity AssistantIdentity) *PromptService {
	return &PromptService{prompts: prompts, identity: identity}
}

func (s *PromptService) List(ctx context.Context) ([]*models.Prompt, error) {
	return s.prompts.List(ctx)
}

func (s *PromptService) Get(ctx context.Context, id uuid.UUID) (*models.Prompt, error) {
	prompt, err := s.prompts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Prompt not found"}
		}
		return nil, err
	}
	return prompt, nil
}

func (s *PromptService) Create(ctx context.Context, req models.CreatePromptRequest) (*models.Prompt, error) {
	if fieldErrors := validatePromptFields(&req.Name, &req.Content); len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	prompt := &models.Prompt{
		Name:     req.Name,
		Content:  req.Content,
		IsActive: true,
	}
	if req.IsActive != nil {
		prompt.IsActive = *req.IsActive
	}

	if err := s.prompts.Create(ctx, prompt); err != nil {
		return nil, err
	}
	return prompt, nil
}

func (s *PromptService) Update(ctx context.Context, id uuid.UUID, req models.UpdatePromptRequest) (*models.Prompt, error) {
	if fieldErrors := validatePromptFields(req.Name, req.Content); len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	prompt, err := s.prompts.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Prompt not found"}
		}
		return nil, err
	}
	return prompt, nil
}

func (s *PromptService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.prompts.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Message: "Prompt not found"}
		}
		return err
	}
	return nil
}

// validatePromptFields checks whichever fields are present; nil means
// "not part of this request" and is skipped.
func validatePromptFields(name, content *string) map[string]string {
	fieldErrors := make(map[string]string)
	if name != nil {
		if *name == "" {
			fieldErrors["name"] = "Name is required"
		} else if len(*name) > 255 {
			fieldErrors["name"] = "Name must be at most 255 characters"
		}
	}
	if content != nil && *content == "" {
		fieldErrors["content"] = "Content is required"
	}
	return fieldErrors
}

// ComposeSystemPrompt builds the instruction text prepended to every
// completion request: the persona block followed by the content of every
// active custom prompt, newest first, separated by blank lines. It is
// recomputed on every call so prompt toggles take effect immediately.
func (s *PromptService) ComposeSystemPrompt(ctx context.Context) (string, error) {
	active, err := s.prompts.ListActive(ctx)
	if err != nil {
		return "", err
	}

	name, description := s.identity.Identity()
	parts := []string{personaPrompt(name, description)}
	for _, p := range active {
		parts = append(parts, p.Content)
	}
	return strings.Join(parts, "\n\n"), nil
}

func personaPrompt(name, description string) string {
	return fmt.Sprintf(`You are %s, %s. You are designed to help students learn and understand complex topics in a clear, engaging, and supportive way.

Your core traits:
- Patient and encouraging
- Clear and concise explanations
- Adapts to student needs
- Uses examples and analogies
- Promotes critical thinking
- Maintains a friendly, professional tone

When helping students:
1. Break down complex concepts into simpler parts
2. Use real-world examples and analogies
3. Ask guiding questions to promote understanding
4. Provide constructive feedback
5. Encourage questions and exploration

Remember to:
- Stay within your knowledge boundaries
- Be honest about limitations
- Focus on educational value
- Maintain appropriate boundaries`, name, description)
}
