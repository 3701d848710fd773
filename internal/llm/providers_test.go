package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleveque/mercado-futuro/internal/config"
	"github.com/fleveque/mercado-futuro/internal/model"
)

func configFor(provider string) config.LLMConfig {
	return config.LLMConfig{
		Provider:  provider,
		Gemini:    config.GeminiConfig{APIKey: "g", Model: "gemini-2.5-flash"},
		Anthropic: config.AnthropicConfig{APIKey: "a", Model: "claude-sonnet-4-5-20250929", MaxTokens: 1024},
		OpenAI:    config.OpenAIConfig{APIKey: "o", Model: "gpt-4o"},
	}
}

func jsonServer(t *testing.T, status int, body string) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestAnthropicClient_Generate(t *testing.T) {
	body := `{
	  "id": "msg_01", "type": "message", "role": "assistant", "model": "claude-sonnet-4-5-20250929",
	  "content": [
	    {"type": "text", "text": "Predicción: Down\n", "citations": null},
	    {"type": "text", "text": "Razonamiento: débil guía.", "citations": [
	      {"type": "web_search_result_location", "url": "https://news.example.com/a", "title": "A", "cited_text": "x", "encrypted_index": "e1"},
	      {"type": "web_search_result_location", "url": "https://news.example.com/a", "title": "A", "cited_text": "y", "encrypted_index": "e2"}
	    ]}
	  ],
	  "stop_reason": "end_turn", "stop_sequence": null,
	  "usage": {"input_tokens": 10, "output_tokens": 20}
	}`
	srv, _ := jsonServer(t, http.StatusOK, body)

	client := NewAnthropicClient("key", "claude-sonnet-4-5-20250929", 0, option.WithBaseURL(srv.URL))
	got, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, "Predicción: Down\nRazonamiento: débil guía.", got.Text)
	assert.Equal(t, []model.GroundingSource{
		{Kind: model.SourceWeb, URI: "https://news.example.com/a", Title: "A"},
	}, got.Sources)
}

func TestAnthropicClient_ErrorIsNotRetried(t *testing.T) {
	body := `{"type": "error", "error": {"type": "api_error", "message": "overloaded"}}`
	srv, calls := jsonServer(t, http.StatusInternalServerError, body)

	client := NewAnthropicClient("key", "claude-sonnet-4-5-20250929", 1024, option.WithBaseURL(srv.URL))
	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, 1, *calls)
}

func TestOpenAIClient_Generate(t *testing.T) {
	body := `{
	  "id": "chatcmpl-1", "object": "chat.completion", "model": "gpt-4o",
	  "choices": [{"index": 0, "finish_reason": "stop",
	    "message": {"role": "assistant", "content": "Predicción: Stable"}}]
	}`
	srv, _ := jsonServer(t, http.StatusOK, body)

	cfg := openai.DefaultConfig("key")
	cfg.BaseURL = srv.URL + "/v1"
	got, err := NewOpenAIClientWithConfig(cfg, "gpt-4o").Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Predicción: Stable", got.Text)
	assert.Empty(t, got.Sources)
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	srv, _ := jsonServer(t, http.StatusOK, `{"id": "x", "choices": []}`)

	cfg := openai.DefaultConfig("key")
	cfg.BaseURL = srv.URL + "/v1"
	_, err := NewOpenAIClientWithConfig(cfg, "gpt-4o").Generate(context.Background(), "prompt")
	assert.Error(t, err)
}
