package ai

import (
	"context"
	"strings"
)

// DefaultTemperature is used when NewGenerator gets a negative temperature.
const DefaultTemperature = 0.7

// Generator adapts a Provider to the single-prompt shape used for insight
// generation. It always asks for JSON output.
type Generator struct {
	provider    Provider
	maxTokens   int
	temperature float64
}

// NewGenerator wraps p. A zero maxTokens falls back to 1500 and a negative
// temperature to DefaultTemperature; a temperature of 0 is sent as is.
func NewGenerator(p Provider, maxTokens int, temperature float64) *Generator {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if temperature < 0 {
		temperature = DefaultTemperature
	}
	return &Generator{provider: p, maxTokens: maxTokens, temperature: temperature}
}

// Generate sends prompt as a single user message under system.
func (g *Generator) Generate(ctx context.Context, system, prompt string) (string, error) {
	res, err := g.provider.Infer(ctx, system, []Message{{Role: "user", Content: prompt}}, InferOptions{
		MaxTokens:   g.maxTokens,
		Temperature: &g.temperature,
		JSON:        true,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Content), nil
}

// Model reports the provider's model name.
func (g *Generator) Model() string { return g.provider.Model() }

// Name reports the provider name, used as a metrics label.
func (g *Generator) Name() string { return g.provider.Name() }
