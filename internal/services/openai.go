package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/H-H-E/vercelchat/internal/models"
)

// OpenAIClient speaks the OpenAI-compatible chat-completions protocol
// with streaming enabled. It hands the raw SSE body back to the caller;
// the chat handler relays and accumulates it.
type OpenAIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOpenAIClient(baseURL string, httpClient *http.Client) *OpenAIClient {
	if httpClient == nil {
		// No client-level timeout: the per-request context bounds the
		// stream, a Timeout here would cut long completions short.
		httpClient = &http.Client{}
	}
	return &OpenAIClient{baseURL: baseURL, httpClient: httpClient}
}

// CompletionRequest is one upstream streaming call.
type CompletionRequest struct {
	Model    string
	APIKey   string
	Messages []models.ChatMessage
}

// StreamCompletion issues the upstream request and returns the open
// response stream. Non-success statuses and missing bodies surface as
// *UpstreamError; closing the reader aborts the upstream transfer.
func (c *OpenAIClient) StreamCompletion(ctx context.Context, req CompletionRequest) (io.ReadCloser, error) {
	endpointURL, err := c.buildEndpointURL()
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"model":       req.Model,
		"messages":    req.Messages,
		"temperature": 0.7,
		"stream":      true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal chat completion payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(req.APIKey) != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &UpstreamError{Status: http.StatusBadGateway, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
		return nil, &UpstreamError{Status: resp.StatusCode, Message: strings.TrimSpace(string(detail))}
	}
	if resp.Body == nil {
		return nil, &UpstreamError{Status: http.StatusInternalServerError, Message: "no stream in upstream response"}
	}

	return resp.Body, nil
}

func (c *OpenAIClient) buildEndpointURL() (string, error) {
	base := strings.TrimSpace(c.baseURL)
	if base == "" {
		return "", fmt.Errorf("base url is empty")
	}
	if strings.HasSuffix(base, "/chat/completions") {
		return base, nil
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/chat/completions"
	return u.String(), nil
}

// ParseStreamDelta extracts the token text from one SSE data payload.
// Returns done=true on the terminal [DONE] marker.
func ParseStreamDelta(payload string) (text string, done bool) {
	if payload == "[DONE]" {
		return "", true
	}
	var chunk struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return "", false
	}
	var sb strings.Builder
	for _, ch := range chunk.Choices {
		sb.WriteString(ch.Delta.Content)
	}
	return sb.String(), false
}
