package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fleveque/mercado-futuro/internal/model"
)

// ErrNotFound is returned when a record doesn't exist in the database.
// Callers check with errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("record not found")

// PredictionRepository persists the prediction history. Rows are append-only;
// nothing reads them back to answer a new prediction.
type PredictionRepository interface {
	Create(ctx context.Context, rec *model.PredictionRecord) error
	GetByID(ctx context.Context, id int64) (*model.PredictionRecord, error)
	ListRecent(ctx context.Context, limit int) ([]model.PredictionRecord, error)
	Count(ctx context.Context) (int64, error)
	CountByPrediction(ctx context.Context, p model.Prediction) (int64, error)
}

type sqlitePredictionRepository struct {
	db *sqlx.DB
}

// NewPredictionRepository creates a new SQLite-backed PredictionRepository.
func NewPredictionRepository(db *sqlx.DB) PredictionRepository {
	return &sqlitePredictionRepository{db: db}
}

func (r *sqlitePredictionRepository) Create(ctx context.Context, rec *model.PredictionRecord) error {
	if rec.GroundingSources == nil {
		rec.GroundingSources = model.GroundingSources{}
	}
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO predictions (
			symbol, timeframe, important_event, current_price,
			prediction, reasoning, suggestion, projected_price,
			grounding_sources, provider, model
		) VALUES (
			:symbol, :timeframe, :important_event, :current_price,
			:prediction, :reasoning, :suggestion, :projected_price,
			:grounding_sources, :provider, :model
		)
	`, rec)
	if err != nil {
		return fmt.Errorf("creating prediction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

func (r *sqlitePredictionRepository) GetByID(ctx context.Context, id int64) (*model.PredictionRecord, error) {
	var rec model.PredictionRecord
	err := r.db.GetContext(ctx, &rec, "SELECT * FROM predictions WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting prediction %d: %w", id, err)
	}
	return &rec, nil
}

// ListRecent returns the newest predictions first.
func (r *sqlitePredictionRepository) ListRecent(ctx context.Context, limit int) ([]model.PredictionRecord, error) {
	recs := []model.PredictionRecord{}
	err := r.db.SelectContext(ctx, &recs,
		"SELECT * FROM predictions ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing predictions: %w", err)
	}
	return recs, nil
}

func (r *sqlitePredictionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM predictions")
	return count, err
}

func (r *sqlitePredictionRepository) CountByPrediction(ctx context.Context, p model.Prediction) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM predictions WHERE prediction = ?", p)
	return count, err
}
