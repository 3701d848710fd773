// Package llm provides a provider-agnostic interface for search-augmented text
// generation. Each provider sends one prompt, lets the model ground its answer
// with web search where the API supports it, and returns the reply text plus
// the citations it used.
package llm

import (
	"context"
	"fmt"

	"github.com/fleveque/mercado-futuro/internal/config"
	"github.com/fleveque/mercado-futuro/internal/model"
)

// Completion is the raw outcome of one generation call.
type Completion struct {
	Text    string
	Sources []model.GroundingSource
}

// Client is the interface for LLM providers.
//
// Keep interfaces small: one call plus two descriptive accessors used for
// call tracking.
type Client interface {
	Generate(ctx context.Context, prompt string) (*Completion, error)
	ProviderName() string
	ModelName() string
}

// New builds the client selected by cfg.Provider. Exactly one provider is
// active; there is no fallback chain.
func New(cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "", "gemini":
		return NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL), nil
	case "anthropic":
		return NewAnthropicClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens), nil
	case "openai":
		return NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// appendSource adds s unless its URI is empty or already present.
func appendSource(sources []model.GroundingSource, s model.GroundingSource) []model.GroundingSource {
	if s.URI == "" {
		return sources
	}
	for _, existing := range sources {
		if existing.URI == s.URI && existing.Kind == s.Kind {
			return sources
		}
	}
	return append(sources, s)
}
