package services

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/H-H-E/vercelchat/internal/models"
)

// SettingsStore is the persistence surface for the settings row.
type SettingsStore interface {
	Get(ctx context.Context) (*models.AppSettings, error)
	Upsert(ctx context.Context, s *models.AppSettings) error
}

// SettingsService owns the working copy of application settings: loaded
// once on start, replaced as a whole on every write, persisted through
// the store so it survives restarts. Reads always mask the API key.
type SettingsService struct {
	mu      sync.RWMutex
	store   SettingsStore
	current models.AppSettings
}

func NewSettingsService(store SettingsStore) *SettingsService {
	return &SettingsService{store: store}
}

// Load pulls the stored record, seeding it from defaults when the row
// does not exist yet (first boot).
func (s *SettingsService) Load(ctx context.Context, defaults models.AppSettings) error {
	stored, err := s.store.Get(ctx)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		seeded := defaults
		if err := s.store.Upsert(ctx, &seeded); err != nil {
			return err
		}
		log.Println("Seeded application settings from environment defaults")
		stored = &seeded
	}

	s.mu.Lock()
	s.current = *stored
	s.mu.Unlock()
	return nil
}

// Get returns the current settings with the API key masked.
func (s *SettingsService) Get() models.AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Masked()
}

// Update validates the request, merges it into the current record and
// persists the result. An incoming key that is absent, empty, or equal to
// the mask sentinel leaves the stored key unchanged.
func (s *SettingsService) Update(ctx context.Context, req models.UpdateSettingsRequest) (models.AppSettings, error) {
	fieldErrors := make(map[string]string)
	if req.DefaultChatModel == nil || *req.DefaultChatModel == "" {
		fieldErrors["defaultChatModel"] = "Default chat model is required"
	}
	if req.AIName == nil || *req.AIName == "" {
		fieldErrors["aiName"] = "AI name is required"
	}
	if req.AIDescription == nil {
		fieldErrors["aiDescription"] = "AI description is required"
	}
	if req.ShowArtifacts == nil {
		fieldErrors["showArtifacts"] = "Show artifacts flag is required"
	}
	if len(fieldErrors) > 0 {
		return models.AppSettings{}, &ValidationError{Fields: fieldErrors}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	next.DefaultChatModel = *req.DefaultChatModel
	next.AIName = *req.AIName
	next.AIDescription = *req.AIDescription
	next.ShowArtifacts = *req.ShowArtifacts
	if req.OpenAIAPIKey != nil && *req.OpenAIAPIKey != "" && *req.OpenAIAPIKey != models.APIKeyMask {
		next.OpenAIAPIKey = *req.OpenAIAPIKey
	}

	if err := s.store.Upsert(ctx, &next); err != nil {
		return models.AppSettings{}, err
	}

	s.current = next
	return next.Masked(), nil
}

// APIKey returns the raw configured key for upstream calls.
func (s *SettingsService) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.OpenAIAPIKey
}

func (s *SettingsService) DefaultModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.DefaultChatModel
}

// Identity returns the assistant name and description used by the
// system-prompt composer.
func (s *SettingsService) Identity() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.AIName, s.current.AIDescription
}
