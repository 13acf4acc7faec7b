package services

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/H-H-E/vercelchat/internal/models"
)

type stubSettingsStore struct {
	stored  *models.AppSettings
	upserts int
	getErr  error
}

func (s *stubSettingsStore) Get(ctx context.Context) (*models.AppSettings, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.stored == nil {
		return nil, pgx.ErrNoRows
	}
	copied := *s.stored
	return &copied, nil
}

func (s *stubSettingsStore) Upsert(ctx context.Context, settings *models.AppSettings) error {
	s.upserts++
	copied := *settings
	copied.UpdatedAt = time.Now()
	s.stored = &copied
	return nil
}

func loadedService(t *testing.T, initial models.AppSettings) (*SettingsService, *stubSettingsStore) {
	t.Helper()
	store := &stubSettingsStore{stored: &initial}
	svc := NewSettingsService(store)
	if err := svc.Load(context.Background(), models.AppSettings{}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return svc, store
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func validUpdate() models.UpdateSettingsRequest {
	return models.UpdateSettingsRequest{
		DefaultChatModel: strPtr("gpt-4o"),
		AIName:           strPtr("Pete"),
		AIDescription:    strPtr("AI tutor"),
		ShowArtifacts:    boolPtr(true),
	}
}

func TestSettingsService_Load_SeedsDefaultsWhenMissing(t *testing.T) {
	store := &stubSettingsStore{}
	svc := NewSettingsService(store)

	defaults := models.AppSettings{
		OpenAIAPIKey:     "sk-seed",
		DefaultChatModel: "gpt-4o",
		AIName:           "Pete",
	}
	if err := svc.Load(context.Background(), defaults); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if store.upserts != 1 {
		t.Errorf("Expected 1 upsert to seed the row, got %d", store.upserts)
	}
	if svc.APIKey() != "sk-seed" {
		t.Errorf("Expected seeded key to be loaded, got %q", svc.APIKey())
	}
}

func TestSettingsService_Get_MasksAPIKey(t *testing.T) {
	svc, _ := loadedService(t, models.AppSettings{OpenAIAPIKey: "sk-secret", DefaultChatModel: "gpt-4o"})

	got := svc.Get()
	if got.OpenAIAPIKey != models.APIKeyMask {
		t.Errorf("Expected masked key %q, got %q", models.APIKeyMask, got.OpenAIAPIKey)
	}
}

func TestSettingsService_Get_EmptyKeyStaysEmpty(t *testing.T) {
	svc, _ := loadedService(t, models.AppSettings{DefaultChatModel: "gpt-4o"})

	if got := svc.Get(); got.OpenAIAPIKey != "" {
		t.Errorf("Expected empty key for unset secret, got %q", got.OpenAIAPIKey)
	}
}

func TestSettingsService_Update_SentinelKeepsStoredKey(t *testing.T) {
	svc, store := loadedService(t, models.AppSettings{OpenAIAPIKey: "sk-original"})

	req := validUpdate()
	req.OpenAIAPIKey = strPtr(models.APIKeyMask)

	got, err := svc.Update(context.Background(), req)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if store.stored.OpenAIAPIKey != "sk-original" {
		t.Errorf("Sentinel update should keep stored key, got %q", store.stored.OpenAIAPIKey)
	}
	if got.OpenAIAPIKey != models.APIKeyMask {
		t.Errorf("Response should mask the key, got %q", got.OpenAIAPIKey)
	}
}

func TestSettingsService_Update_AbsentKeyKeepsStoredKey(t *testing.T) {
	svc, store := loadedService(t, models.AppSettings{OpenAIAPIKey: "sk-original"})

	if _, err := svc.Update(context.Background(), validUpdate()); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if store.stored.OpenAIAPIKey != "sk-original" {
		t.Errorf("Absent key should keep stored key, got %q", store.stored.OpenAIAPIKey)
	}
}

func TestSettingsService_Update_NewKeyReplaces(t *testing.T) {
	svc, store := loadedService(t, models.AppSettings{OpenAIAPIKey: "sk-original"})

	req := validUpdate()
	req.OpenAIAPIKey = strPtr("sk-replacement")

	got, err := svc.Update(context.Background(), req)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if store.stored.OpenAIAPIKey != "sk-replacement" {
		t.Errorf("Expected stored key to be replaced, got %q", store.stored.OpenAIAPIKey)
	}
	if got.OpenAIAPIKey != models.APIKeyMask {
		t.Errorf("Response must never reveal the raw key, got %q", got.OpenAIAPIKey)
	}
}

func TestSettingsService_Update_ValidationFailure(t *testing.T) {
	svc, store := loadedService(t, models.AppSettings{})
	upsertsBefore := store.upserts

	tests := []struct {
		name   string
		mutate func(*models.UpdateSettingsRequest)
		field  string
	}{
		{"missing model", func(r *models.UpdateSettingsRequest) { r.DefaultChatModel = nil }, "defaultChatModel"},
		{"empty model", func(r *models.UpdateSettingsRequest) { r.DefaultChatModel = strPtr("") }, "defaultChatModel"},
		{"missing name", func(r *models.UpdateSettingsRequest) { r.AIName = nil }, "aiName"},
		{"missing description", func(r *models.UpdateSettingsRequest) { r.AIDescription = nil }, "aiDescription"},
		{"missing artifacts flag", func(r *models.UpdateSettingsRequest) { r.ShowArtifacts = nil }, "showArtifacts"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validUpdate()
			tc.mutate(&req)

			_, err := svc.Update(context.Background(), req)
			vErr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if _, present := vErr.Fields[tc.field]; !present {
				t.Errorf("Expected field error for %q, got %v", tc.field, vErr.Fields)
			}
		})
	}

	if store.upserts != upsertsBefore {
		t.Errorf("Validation failures must not persist anything")
	}
}
