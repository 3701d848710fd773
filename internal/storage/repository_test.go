// Repository tests run against a real SQLite file in a temp directory, so
// the schema, the sqlx mappings and the JSON column are all exercised.
package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fleveque/mercado-futuro/internal/model"
)

// setupTestDB creates a temporary SQLite database for testing.
// t.TempDir() is removed automatically after the test.
func setupTestDB(t *testing.T) *testDeps {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})

	return &testDeps{
		predictionRepo: NewPredictionRepository(db),
		llmCallRepo:    NewLLMCallRepository(db),
	}
}

type testDeps struct {
	predictionRepo PredictionRepository
	llmCallRepo    LLMCallRepository
}

func ptr[T any](v T) *T { return &v }

func TestPredictionRepository_CreateAndGet(t *testing.T) {
	deps := setupTestDB(t)
	ctx := context.Background()

	rec := &model.PredictionRecord{
		Symbol:         "AAPL",
		Timeframe:      model.Timeframe1Week,
		ImportantEvent: "Resultados trimestrales",
		CurrentPrice:   ptr(150.25),
		Prediction:     model.PredictionUp,
		Reasoning:      "Fuerte demanda del nuevo iPhone.",
		Suggestion:     ptr(model.SuggestionModerateBuy),
		ProjectedPrice: ptr("160.00 USD"),
		GroundingSources: model.GroundingSources{
			{Kind: model.SourceWeb, URI: "https://example.com/a", Title: "A"},
			{Kind: model.SourceMaps, URI: "https://maps.example.com/b"},
		},
		Provider: "gemini",
		Model:    "gemini-2.5-flash",
	}

	if err := deps.predictionRepo.Create(ctx, rec); err != nil {
		t.Fatalf("creating prediction: %v", err)
	}
	if rec.ID == 0 {
		t.Fatal("expected prediction ID to be set after create")
	}

	got, err := deps.predictionRepo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("getting prediction: %v", err)
	}

	if got.Symbol != "AAPL" {
		t.Errorf("expected symbol AAPL, got %s", got.Symbol)
	}
	if got.Timeframe != model.Timeframe1Week {
		t.Errorf("expected timeframe 1-week, got %s", got.Timeframe)
	}
	if got.CurrentPrice == nil || *got.CurrentPrice != 150.25 {
		t.Errorf("expected current price 150.25, got %v", got.CurrentPrice)
	}
	if got.Suggestion == nil || *got.Suggestion != model.SuggestionModerateBuy {
		t.Errorf("expected suggestion Compra Moderada, got %v", got.Suggestion)
	}
	if got.ProjectedPrice == nil || *got.ProjectedPrice != "160.00 USD" {
		t.Errorf("expected projected price 160.00 USD, got %v", got.ProjectedPrice)
	}
	if len(got.GroundingSources) != 2 {
		t.Fatalf("expected 2 grounding sources, got %d", len(got.GroundingSources))
	}
	if got.GroundingSources[1].Kind != model.SourceMaps {
		t.Errorf("expected second source kind maps, got %s", got.GroundingSources[1].Kind)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created_at to be set by the database")
	}
}

func TestPredictionRepository_OptionalFieldsStayNil(t *testing.T) {
	deps := setupTestDB(t)
	ctx := context.Background()

	rec := &model.PredictionRecord{
		Symbol:     "TSLA",
		Timeframe:  model.Timeframe1Day,
		Prediction: model.PredictionStable,
		Provider:   "gemini",
		Model:      "gemini-2.5-flash",
	}
	if err := deps.predictionRepo.Create(ctx, rec); err != nil {
		t.Fatalf("creating prediction: %v", err)
	}

	got, err := deps.predictionRepo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("getting prediction: %v", err)
	}
	if got.CurrentPrice != nil {
		t.Errorf("expected nil current price, got %v", *got.CurrentPrice)
	}
	if got.Suggestion != nil {
		t.Errorf("expected nil suggestion, got %v", *got.Suggestion)
	}
	if got.ProjectedPrice != nil {
		t.Errorf("expected nil projected price, got %v", *got.ProjectedPrice)
	}
	if got.GroundingSources == nil || len(got.GroundingSources) != 0 {
		t.Errorf("expected empty non-nil sources, got %#v", got.GroundingSources)
	}
}

func TestPredictionRepository_GetByID_NotFound(t *testing.T) {
	deps := setupTestDB(t)

	_, err := deps.predictionRepo.GetByID(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPredictionRepository_ListRecentAndCounts(t *testing.T) {
	deps := setupTestDB(t)
	ctx := context.Background()

	preds := []model.Prediction{model.PredictionUp, model.PredictionDown, model.PredictionUp}
	symbols := []string{"AAPL", "MSFT", "GOOG"}
	for i, p := range preds {
		rec := &model.PredictionRecord{
			Symbol: symbols[i], Timeframe: model.Timeframe1Day, Prediction: p,
			Provider: "gemini", Model: "gemini-2.5-flash",
		}
		if err := deps.predictionRepo.Create(ctx, rec); err != nil {
			t.Fatalf("creating prediction %d: %v", i, err)
		}
	}

	recent, err := deps.predictionRepo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("listing predictions: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(recent))
	}
	// Same-second inserts fall back to id ordering, newest first
	if recent[0].Symbol != "GOOG" {
		t.Errorf("expected newest prediction GOOG first, got %s", recent[0].Symbol)
	}

	total, err := deps.predictionRepo.Count(ctx)
	if err != nil {
		t.Fatalf("counting predictions: %v", err)
	}
	if total != 3 {
		t.Errorf("expected 3 predictions, got %d", total)
	}

	ups, err := deps.predictionRepo.CountByPrediction(ctx, model.PredictionUp)
	if err != nil {
		t.Fatalf("counting up predictions: %v", err)
	}
	if ups != 2 {
		t.Errorf("expected 2 up predictions, got %d", ups)
	}
}

func TestPredictionRepository_ListRecentEmpty(t *testing.T) {
	deps := setupTestDB(t)

	recent, err := deps.predictionRepo.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("listing predictions: %v", err)
	}
	if recent == nil || len(recent) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", recent)
	}
}

func TestLLMCallRepository_CreateAndCount(t *testing.T) {
	deps := setupTestDB(t)
	ctx := context.Background()

	errMsg := "API key not valid"
	calls := []*model.LLMCall{
		{Symbol: "AAPL", Provider: "gemini", Model: "gemini-2.5-flash", Success: true, DurationMs: ptr(int64(1200))},
		{Symbol: "AAPL", Provider: "gemini", Model: "gemini-2.5-flash", Success: false, ErrorMessage: &errMsg},
		{Symbol: "MSFT", Provider: "gemini", Model: "gemini-2.5-flash", Success: true},
	}
	for _, c := range calls {
		if err := deps.llmCallRepo.Create(ctx, c); err != nil {
			t.Fatalf("creating llm call: %v", err)
		}
		if c.ID == 0 {
			t.Error("expected llm call ID to be set after create")
		}
	}

	total, err := deps.llmCallRepo.Count(ctx)
	if err != nil {
		t.Fatalf("counting llm calls: %v", err)
	}
	if total != 3 {
		t.Errorf("expected 3 llm calls, got %d", total)
	}

	failed, err := deps.llmCallRepo.CountFailed(ctx)
	if err != nil {
		t.Fatalf("counting failed calls: %v", err)
	}
	if failed != 1 {
		t.Errorf("expected 1 failed call, got %d", failed)
	}

	aapl, err := deps.llmCallRepo.CountBySymbol(ctx, "AAPL")
	if err != nil {
		t.Fatalf("counting calls by symbol: %v", err)
	}
	if aapl != 2 {
		t.Errorf("expected 2 AAPL calls, got %d", aapl)
	}
}
