package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/fleveque/mercado-futuro/internal/model"
)

// AnthropicClient implements the Client interface using Claude with native web search.
// Claude's built-in web_search tool runs server-side, so a single Messages call
// returns the final text together with the citations it relied on.
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicClient creates a new Claude-backed client.
func NewAnthropicClient(apiKey string, model string, maxTokens int64, opts ...option.RequestOption) *AnthropicClient {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	// The SDK retries failed requests by default; a prediction is single-shot.
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	client := anthropic.NewClient(opts...)
	return &AnthropicClient{
		client:    &client,
		model:     model,
		maxTokens: maxTokens,
	}
}

func (a *AnthropicClient) ProviderName() string { return "anthropic" }
func (a *AnthropicClient) ModelName() string     { return a.model }

func (a *AnthropicClient) Generate(ctx context.Context, prompt string) (*Completion, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Tools: []anthropic.ToolUnionParam{
			{OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	var text strings.Builder
	sources := []model.GroundingSource{}
	for _, block := range message.Content {
		tb, ok := block.AsAny().(anthropic.TextBlock)
		if !ok {
			continue
		}
		text.WriteString(tb.Text)
		for _, c := range tb.Citations {
			if c.Type != "web_search_result_location" {
				continue
			}
			sources = appendSource(sources, model.GroundingSource{
				Kind:  model.SourceWeb,
				URI:   c.URL,
				Title: c.Title,
			})
		}
	}

	return &Completion{Text: text.String(), Sources: sources}, nil
}
