// Package prediction asks an LLM for a stock movement prediction and turns the
// free-text reply into a structured result.
//
// A prediction is one stateless request/response: build the prompt, make a
// single search-augmented generation call, parse the labelled reply. There is
// no retry, no caching and no timeout beyond what the caller's context carries.
package prediction

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fleveque/mercado-futuro/internal/llm"
	"github.com/fleveque/mercado-futuro/internal/model"
)

// Client is the prediction client. The LLM client, and with it the API key,
// is injected at construction.
type Client struct {
	llm    llm.Client
	logger *zap.Logger
}

// NewClient creates a prediction client on top of an LLM provider.
func NewClient(llmClient llm.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		llm:    llmClient,
		logger: logger,
	}
}

// ProviderName and ModelName describe the backing LLM, for call tracking.
func (c *Client) ProviderName() string { return c.llm.ProviderName() }
func (c *Client) ModelName() string    { return c.llm.ModelName() }

// Predict runs one prediction. On failure it returns an error wrapping
// ErrPredictionFailed and the provider error; no partial result is returned.
func (c *Client) Predict(ctx context.Context, req model.PredictionRequest) (*model.PredictionResult, error) {
	prompt := BuildPrompt(req)

	c.logger.Debug("requesting prediction",
		zap.String("symbol", req.Symbol),
		zap.String("timeframe", string(req.Timeframe)),
		zap.Bool("has_price", req.HasCurrentPrice()),
		zap.String("provider", c.llm.ProviderName()),
	)

	completion, err := c.llm.Generate(ctx, prompt)
	if err != nil {
		c.logger.Error("prediction request failed",
			zap.String("symbol", req.Symbol),
			zap.String("provider", c.llm.ProviderName()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrPredictionFailed, err)
	}

	res := ParseResponse(completion.Text, completion.Sources)

	c.logger.Info("prediction parsed",
		zap.String("symbol", req.Symbol),
		zap.String("prediction", string(res.Prediction)),
		zap.Bool("has_suggestion", res.Suggestion != nil),
		zap.Bool("has_projected_price", res.ProjectedPrice != nil),
		zap.Int("sources", len(res.GroundingSources)),
	)

	return res, nil
}
