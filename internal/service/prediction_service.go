// Package service contains the business logic around a prediction: running
// the prediction client and keeping the history and the LLM call audit log.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/mercado-futuro/internal/model"
	"github.com/fleveque/mercado-futuro/internal/storage"
)

// Predictor is the part of prediction.Client the service needs.
// Defining the interface at the consumer keeps the service testable with fakes.
type Predictor interface {
	Predict(ctx context.Context, req model.PredictionRequest) (*model.PredictionResult, error)
	ProviderName() string
	ModelName() string
}

// Stats summarizes stored predictions and LLM usage for the admin API.
type Stats struct {
	Predictions      int64                      `json:"predictions"`
	ByPrediction     map[model.Prediction]int64 `json:"by_prediction"`
	LLMCalls         int64                      `json:"llm_calls"`
	FailedLLMCalls   int64                      `json:"failed_llm_calls"`
	Provider         string                     `json:"provider"`
	Model            string                     `json:"model"`
	PersistenceReady bool                       `json:"persistence_enabled"`
}

// PredictionService wraps a Predictor with call tracking and history.
// Both repositories may be nil, in which case nothing is persisted.
type PredictionService struct {
	predictor      Predictor
	predictionRepo storage.PredictionRepository
	llmCallRepo    storage.LLMCallRepository
	logger         *zap.Logger
}

// NewPredictionService wires a predictor to optional storage.
func NewPredictionService(
	predictor Predictor,
	predictionRepo storage.PredictionRepository,
	llmCallRepo storage.LLMCallRepository,
	logger *zap.Logger,
) *PredictionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictionService{
		predictor:      predictor,
		predictionRepo: predictionRepo,
		llmCallRepo:    llmCallRepo,
		logger:         logger,
	}
}

// Predict runs a single prediction. The predictor's error is returned as is;
// storage failures are logged and never change the outcome.
func (s *PredictionService) Predict(ctx context.Context, req model.PredictionRequest) (*model.PredictionResult, error) {
	start := time.Now()
	res, err := s.predictor.Predict(ctx, req)
	duration := time.Since(start).Milliseconds()

	s.recordCall(ctx, req.Symbol, err, duration)

	if err != nil {
		return nil, err
	}

	s.storePrediction(ctx, req, res)
	return res, nil
}

// History returns the most recent stored predictions, newest first.
func (s *PredictionService) History(ctx context.Context, limit int) ([]model.PredictionRecord, error) {
	if s.predictionRepo == nil {
		return []model.PredictionRecord{}, nil
	}
	recs, err := s.predictionRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return recs, nil
}

// Get returns one stored prediction. storage.ErrNotFound is passed through
// so handlers can map it to 404.
func (s *PredictionService) Get(ctx context.Context, id int64) (*model.PredictionRecord, error) {
	if s.predictionRepo == nil {
		return nil, storage.ErrNotFound
	}
	return s.predictionRepo.GetByID(ctx, id)
}

// Stats aggregates counters from both tables.
func (s *PredictionService) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByPrediction: map[model.Prediction]int64{},
		Provider:     s.predictor.ProviderName(),
		Model:        s.predictor.ModelName(),
	}

	if s.predictionRepo != nil {
		stats.PersistenceReady = true

		total, err := s.predictionRepo.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting predictions: %w", err)
		}
		stats.Predictions = total

		for _, p := range []model.Prediction{model.PredictionUp, model.PredictionDown, model.PredictionStable} {
			n, err := s.predictionRepo.CountByPrediction(ctx, p)
			if err != nil {
				return nil, fmt.Errorf("counting %s predictions: %w", p, err)
			}
			stats.ByPrediction[p] = n
		}
	}

	if s.llmCallRepo != nil {
		calls, err := s.llmCallRepo.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting llm calls: %w", err)
		}
		failed, err := s.llmCallRepo.CountFailed(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting failed llm calls: %w", err)
		}
		stats.LLMCalls = calls
		stats.FailedLLMCalls = failed
	}

	return stats, nil
}

func (s *PredictionService) recordCall(ctx context.Context, symbol string, callErr error, durationMs int64) {
	if s.llmCallRepo == nil {
		return
	}

	call := &model.LLMCall{
		Symbol:     symbol,
		Provider:   s.predictor.ProviderName(),
		Model:      s.predictor.ModelName(),
		Success:    callErr == nil,
		DurationMs: &durationMs,
	}
	if callErr != nil {
		msg := callErr.Error()
		call.ErrorMessage = &msg
	}

	// Use a fresh context: a cancelled request still deserves an audit row.
	if err := s.llmCallRepo.Create(context.WithoutCancel(ctx), call); err != nil {
		s.logger.Error("recording LLM call", zap.String("symbol", symbol), zap.Error(err))
	}
}

func (s *PredictionService) storePrediction(ctx context.Context, req model.PredictionRequest, res *model.PredictionResult) {
	if s.predictionRepo == nil {
		return
	}

	rec := model.NewPredictionRecord(req, res, s.predictor.ProviderName(), s.predictor.ModelName())
	if err := s.predictionRepo.Create(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Error("storing prediction", zap.String("symbol", req.Symbol), zap.Error(err))
		return
	}

	s.logger.Debug("prediction stored", zap.String("symbol", req.Symbol), zap.Int64("id", rec.ID))
}
