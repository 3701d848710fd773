package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fleveque/mercado-futuro/internal/model"
	"github.com/fleveque/mercado-futuro/internal/storage"
)

// fakePredictor returns a canned result or error and counts calls.
type fakePredictor struct {
	result *model.PredictionResult
	err    error
	calls  int
}

func (f *fakePredictor) Predict(_ context.Context, _ model.PredictionRequest) (*model.PredictionResult, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakePredictor) ProviderName() string { return "fake" }
func (f *fakePredictor) ModelName() string    { return "fake-1" }

func setupRepos(t *testing.T) (storage.PredictionRepository, storage.LLMCallRepository) {
	t.Helper()

	db, err := storage.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return storage.NewPredictionRepository(db), storage.NewLLMCallRepository(db)
}

func sampleResult() *model.PredictionResult {
	s := model.SuggestionHold
	return &model.PredictionResult{
		Prediction:       model.PredictionStable,
		Reasoning:        "Sin catalizadores claros.",
		Suggestion:       &s,
		GroundingSources: model.GroundingSources{{Kind: model.SourceWeb, URI: "https://example.com"}},
	}
}

func TestPredict_StoresHistoryAndCall(t *testing.T) {
	predRepo, callRepo := setupRepos(t)
	fake := &fakePredictor{result: sampleResult()}
	svc := NewPredictionService(fake, predRepo, callRepo, nil)
	ctx := context.Background()

	req := model.PredictionRequest{Symbol: "AAPL", Timeframe: model.Timeframe1Day}
	res, err := svc.Predict(ctx, req)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if res.Prediction != model.PredictionStable {
		t.Errorf("expected Stable, got %s", res.Prediction)
	}

	history, err := svc.History(ctx, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 stored prediction, got %d", len(history))
	}
	if history[0].Provider != "fake" || history[0].Model != "fake-1" {
		t.Errorf("expected provider fake/fake-1, got %s/%s", history[0].Provider, history[0].Model)
	}

	got, err := svc.Get(ctx, history[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Symbol != "AAPL" {
		t.Errorf("expected symbol AAPL, got %s", got.Symbol)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Predictions != 1 || stats.LLMCalls != 1 || stats.FailedLLMCalls != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.ByPrediction[model.PredictionStable] != 1 {
		t.Errorf("expected 1 stable prediction, got %d", stats.ByPrediction[model.PredictionStable])
	}
	if !stats.PersistenceReady {
		t.Error("expected persistence to be enabled")
	}
}

func TestPredict_FailureRecordsCallOnly(t *testing.T) {
	predRepo, callRepo := setupRepos(t)
	apiErr := errors.New("API key not valid")
	fake := &fakePredictor{err: apiErr}
	svc := NewPredictionService(fake, predRepo, callRepo, nil)
	ctx := context.Background()

	res, err := svc.Predict(ctx, model.PredictionRequest{Symbol: "AAPL", Timeframe: model.Timeframe1Day})
	if !errors.Is(err, apiErr) {
		t.Errorf("expected predictor error to be returned, got %v", err)
	}
	if res != nil {
		t.Errorf("expected no result on failure, got %+v", res)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Predictions != 0 {
		t.Errorf("expected no stored predictions, got %d", stats.Predictions)
	}
	if stats.LLMCalls != 1 || stats.FailedLLMCalls != 1 {
		t.Errorf("expected 1 failed llm call, got %d/%d", stats.FailedLLMCalls, stats.LLMCalls)
	}
}

func TestPredict_WithoutPersistence(t *testing.T) {
	fake := &fakePredictor{result: sampleResult()}
	svc := NewPredictionService(fake, nil, nil, nil)
	ctx := context.Background()

	if _, err := svc.Predict(ctx, model.PredictionRequest{Symbol: "MSFT", Timeframe: model.Timeframe1Hour}); err != nil {
		t.Fatalf("predict: %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("expected 1 predictor call, got %d", fake.calls)
	}

	history, err := svc.History(ctx, 5)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("expected empty history, got %d", len(history))
	}

	if _, err := svc.Get(ctx, 1); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.PersistenceReady {
		t.Error("expected persistence to be disabled")
	}
}

func TestPredict_CancelledContextStillAudited(t *testing.T) {
	predRepo, callRepo := setupRepos(t)
	fake := &fakePredictor{err: context.Canceled}
	svc := NewPredictionService(fake, predRepo, callRepo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Predict(ctx, model.PredictionRequest{Symbol: "AAPL", Timeframe: model.Timeframe1Day}); err == nil {
		t.Fatal("expected error")
	}

	n, err := callRepo.CountBySymbol(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("counting calls: %v", err)
	}
	if n != 1 {
		t.Errorf("expected the cancelled call to be recorded, got %d", n)
	}
}
