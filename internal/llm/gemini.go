package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/genai"

	"github.com/fleveque/mercado-futuro/internal/model"
)

// GeminiClient implements the Client interface using Gemini with the Google
// Search tool enabled, so the model can ground its answer in current news.
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
}

// NewGeminiClient creates a Gemini-backed client. baseURL may be empty.
func NewGeminiClient(apiKey, model, baseURL string) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
	}
}

func (g *GeminiClient) ProviderName() string { return "gemini" }
func (g *GeminiClient) ModelName() string    { return g.model }

// Generate sends the prompt as the only content of a single generateContent call.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (*Completion, error) {
	// Built per call: a missing or rotated key shows up on the request that
	// uses it, not at startup.
	rec := &bodyRecorder{base: http.DefaultTransport}
	client, err := genai.NewClient(ctx, g.clientConfig(&http.Client{Transport: rec}))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	sources, err := groundingSources(rec.body)
	if err != nil {
		return nil, err
	}

	return &Completion{
		Text:    resp.Text(),
		Sources: sources,
	}, nil
}

func (g *GeminiClient) clientConfig(httpClient *http.Client) *genai.ClientConfig {
	cfg := &genai.ClientConfig{
		APIKey:     g.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if g.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
	}
	return cfg
}

// bodyRecorder keeps a copy of the last response body. The SDK's typed
// GroundingChunk has no maps field, so citations are read from the raw JSON.
type bodyRecorder struct {
	base http.RoundTripper
	body []byte
}

func (r *bodyRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading gemini response: %w", err)
	}
	r.body = data
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}

// rawResponse is the part of the generateContent wire format we read ourselves.
type rawResponse struct {
	Candidates []struct {
		GroundingMetadata *struct {
			GroundingChunks []groundingChunk `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

// groundingChunk is one entry of candidates[].groundingMetadata.groundingChunks[].
// Other chunk kinds (retrievedContext) decode with both fields nil and are skipped.
type groundingChunk struct {
	Web  *groundingCitation `json:"web"`
	Maps *groundingCitation `json:"maps"`
}

type groundingCitation struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// groundingSources extracts web and maps citations, in response order, from
// the first candidate.
func groundingSources(body []byte) ([]model.GroundingSource, error) {
	sources := []model.GroundingSource{}
	if len(body) == 0 {
		return sources, nil
	}

	var raw rawResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding grounding chunks: %w", err)
	}
	if len(raw.Candidates) == 0 || raw.Candidates[0].GroundingMetadata == nil {
		return sources, nil
	}

	for _, c := range raw.Candidates[0].GroundingMetadata.GroundingChunks {
		switch {
		case c.Web != nil:
			sources = append(sources, model.GroundingSource{Kind: model.SourceWeb, URI: c.Web.URI, Title: c.Web.Title})
		case c.Maps != nil:
			sources = append(sources, model.GroundingSource{Kind: model.SourceMaps, URI: c.Maps.URI, Title: c.Maps.Title})
		}
	}
	return sources, nil
}
