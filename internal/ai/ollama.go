package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	defaultOllamaHost  = "http://localhost:11434"
	defaultOllamaModel = "llama3.1"
)

// OllamaProvider talks to a local Ollama server.
type OllamaProvider struct {
	host   string
	model  string
	client *http.Client
}

func newOllama(s Settings, client *http.Client) *OllamaProvider {
	return &OllamaProvider{
		host:   strings.TrimRight(pick(s.Host, defaultOllamaHost), "/"),
		model:  pick(s.Model, defaultOllamaModel),
		client: client,
	}
}

// Name returns the provider identifier.
func (p *OllamaProvider) Name() string { return "ollama" }

// Model returns the default model.
func (p *OllamaProvider) Model() string { return p.model }

type ollamaRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	PromptEvalCount int  `json:"prompt_eval_count"`
	EvalCount       int  `json:"eval_count"`
	Done            bool `json:"done"`
}

// Infer sends one non-streaming chat request.
func (p *OllamaProvider) Infer(ctx context.Context, system string, messages []Message, opts InferOptions) (*InferResult, error) {
	msgs := make([]Message, 0, len(messages)+1)
	if system != "" {
		msgs = append(msgs, Message{Role: "system", Content: system})
	}
	msgs = append(msgs, messages...)

	reqBody := ollamaRequest{
		Model:    pick(opts.Model, p.model),
		Messages: msgs,
	}
	if opts.JSON {
		reqBody.Format = "json"
	}
	if opts.Temperature != nil || opts.MaxTokens > 0 {
		reqBody.Options = map[string]any{}
		if opts.Temperature != nil {
			reqBody.Options["temperature"] = *opts.Temperature
		}
		if opts.MaxTokens > 0 {
			reqBody.Options["num_predict"] = opts.MaxTokens
		}
	}

	var apiResp ollamaResponse
	if err := postJSON(ctx, p.client, p.Name(), p.host+"/api/chat", nil, reqBody, &apiResp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, err
		}
		return nil, fmt.Errorf("could not reach Ollama at %s (is Ollama running?): %w", p.host, err)
	}

	return &InferResult{
		Content:      apiResp.Message.Content,
		Model:        reqBody.Model,
		InputTokens:  apiResp.PromptEvalCount,
		OutputTokens: apiResp.EvalCount,
	}, nil
}
