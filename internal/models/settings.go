package models

import "time"

// APIKeyMask is the sentinel returned in place of a configured API key.
// An update carrying this exact value leaves the stored key untouched.
const APIKeyMask = "********"

// AppSettings is the application-wide configuration record. A single row
// lives in the database; the settings service keeps the working copy.
type AppSettings struct {
	OpenAIAPIKey     string    `json:"openaiApiKey"`
	DefaultChatModel string    `json:"defaultChatModel"`
	AIName           string    `json:"aiName"`
	AIDescription    string    `json:"aiDescription"`
	ShowArtifacts    bool      `json:"showArtifacts"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Masked returns a copy safe to hand to clients.
func (s AppSettings) Masked() AppSettings {
	if s.OpenAIAPIKey != "" {
		s.OpenAIAPIKey = APIKeyMask
	}
	return s
}

type UpdateSettingsRequest struct {
	OpenAIAPIKey     *string `json:"openaiApiKey"`
	DefaultChatModel *string `json:"defaultChatModel"`
	AIName           *string `json:"aiName"`
	AIDescription    *string `json:"aiDescription"`
	ShowArtifacts    *bool   `json:"showArtifacts"`
}
