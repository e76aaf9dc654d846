// Package ai provides a small client for chat-style text generation across
// Anthropic, OpenAI and Ollama, and adapts it to the insight generator.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrNotConfigured is returned by NewProvider when no provider is selected.
var ErrNotConfigured = errors.New("no AI provider configured")

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// InferOptions configures a single inference call.
type InferOptions struct {
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
	// Temperature is sent only when set, so an explicit 0 reaches the API.
	Temperature *float64 `json:"temperature,omitempty"`
	// JSON asks the backend for a JSON document when it supports that.
	JSON bool `json:"json,omitempty"`
}

// InferResult holds the response from an inference call.
type InferResult struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"inputTokens,omitempty"`
	OutputTokens int    `json:"outputTokens,omitempty"`
}

// Provider is implemented by every backend.
type Provider interface {
	Infer(ctx context.Context, system string, messages []Message, opts InferOptions) (*InferResult, error)
	Name() string
	Model() string
}

// Settings selects and configures a provider. Values come from the caller's
// configuration; NewProvider never reads the environment.
type Settings struct {
	Provider string
	Model    string
	APIKey   string
	// Host overrides the API base URL (required for ollama, optional
	// elsewhere).
	Host    string
	Timeout time.Duration
}

// NewProvider builds the provider named by s.Provider. An empty name yields
// ErrNotConfigured so callers can treat generation as unavailable.
func NewProvider(s Settings) (Provider, error) {
	if s.Timeout <= 0 {
		s.Timeout = 120 * time.Second
	}
	client := &http.Client{Timeout: s.Timeout}

	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case "", "none", "mock":
		return nil, ErrNotConfigured
	case "anthropic":
		if s.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider needs an API key: set ai.api_key or SHEETSIGHT_AI_API_KEY")
		}
		return newAnthropic(s, client), nil
	case "openai":
		if s.APIKey == "" {
			return nil, fmt.Errorf("openai provider needs an API key: set ai.api_key or SHEETSIGHT_AI_API_KEY")
		}
		return newOpenAI(s, client), nil
	case "ollama":
		return newOllama(s, client), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q; supported providers: anthropic, openai, ollama", s.Provider)
	}
}

// APIError is a non-2xx reply from a backend.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// postJSON sends body as JSON and decodes a 200 reply into out.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("could not marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", provider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{Provider: provider, StatusCode: resp.StatusCode, Body: truncate(string(respBody), 512)}
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("could not parse %s response: %w", provider, err)
	}
	return nil
}

// truncate shortens s to at most n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}

func pick(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}
