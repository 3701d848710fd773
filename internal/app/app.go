// Package app wires configuration, storage, the LLM provider and the
// prediction service together. Both the HTTP server and the CLI start here.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/fleveque/mercado-futuro/internal/config"
	"github.com/fleveque/mercado-futuro/internal/llm"
	"github.com/fleveque/mercado-futuro/internal/prediction"
	"github.com/fleveque/mercado-futuro/internal/service"
	"github.com/fleveque/mercado-futuro/internal/storage"
)

// ConfigPathEnv points at an explicit config file.
const ConfigPathEnv = "MERCADO_CONFIG_PATH"

// App holds the long-lived dependencies of a process.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Service *service.PredictionService

	db *sqlx.DB // nil when persistence is disabled
}

// NewLogger returns a development logger for debug level and a JSON
// production logger otherwise.
func NewLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// New builds the application. An empty storage.database_path runs without
// history; a missing API key is not an error here, it fails the first call.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	var (
		predictionRepo storage.PredictionRepository
		llmCallRepo    storage.LLMCallRepository
	)
	if path := cfg.Storage.DatabasePath; path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		db, err := storage.NewDatabase(path)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		a.db = db
		predictionRepo = storage.NewPredictionRepository(db)
		llmCallRepo = storage.NewLLMCallRepository(db)
	} else {
		logger.Warn("storage.database_path is empty, prediction history is disabled")
	}

	llmClient, err := llm.New(cfg.LLM)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating llm client: %w", err)
	}

	logger.Info("llm provider configured",
		zap.String("provider", llmClient.ProviderName()),
		zap.String("model", llmClient.ModelName()),
	)

	predictor := prediction.NewClient(llmClient, logger)
	a.Service = service.NewPredictionService(predictor, predictionRepo, llmCallRepo, logger)
	return a, nil
}

// Close releases the database handle, if any.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
