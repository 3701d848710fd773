// Package model defines the core data types for the prediction service.
// Go doesn't have enums, so the discrete values (timeframes, predictions,
// suggestions) are typed string constants with explicit values.
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Timeframe is the horizon a prediction is made for.
type Timeframe string

const (
	Timeframe5Min    Timeframe = "5-min"
	Timeframe15Min   Timeframe = "15-min"
	Timeframe30Min   Timeframe = "30-min"
	Timeframe1Hour   Timeframe = "1-hour"
	Timeframe1Day    Timeframe = "1-day"
	Timeframe1Week   Timeframe = "1-week"
	Timeframe1Month  Timeframe = "1-month"
	Timeframe3Months Timeframe = "3-months"
	Timeframe6Months Timeframe = "6-months"
	Timeframe1Year   Timeframe = "1-year"
)

// DefaultTimeframe is preselected in the form.
const DefaultTimeframe = Timeframe1Day

// AllTimeframes is the ordered list shown in the timeframe selector.
var AllTimeframes = []Timeframe{
	Timeframe5Min, Timeframe15Min, Timeframe30Min, Timeframe1Hour, Timeframe1Day,
	Timeframe1Week, Timeframe1Month, Timeframe3Months, Timeframe6Months, Timeframe1Year,
}

var timeframeLabels = map[Timeframe]string{
	Timeframe5Min:    "5 Minutos",
	Timeframe15Min:   "15 Minutos",
	Timeframe30Min:   "30 Minutos",
	Timeframe1Hour:   "1 Hora",
	Timeframe1Day:    "1 Día",
	Timeframe1Week:   "1 Semana",
	Timeframe1Month:  "1 Mes",
	Timeframe3Months: "3 Meses",
	Timeframe6Months: "6 Meses",
	Timeframe1Year:   "1 Año",
}

// ValidTimeframe checks if a string is one of the ten known timeframes.
func ValidTimeframe(s string) bool {
	_, ok := timeframeLabels[Timeframe(s)]
	return ok
}

// Label returns the human-readable (Spanish) name of the timeframe.
func (t Timeframe) Label() string {
	if l, ok := timeframeLabels[t]; ok {
		return l
	}
	return string(t)
}

// Prediction is the expected direction of the next price move.
type Prediction string

const (
	PredictionUp     Prediction = "Up"
	PredictionDown   Prediction = "Down"
	PredictionStable Prediction = "Stable"
)

// Label returns the display name used in the UI.
func (p Prediction) Label() string {
	switch p {
	case PredictionUp:
		return "Alza"
	case PredictionDown:
		return "Baja"
	default:
		return "Estable"
	}
}

// Suggestion is the concrete action proposed to the investor. The values are
// the exact labels the model is asked to emit.
type Suggestion string

const (
	SuggestionModerateBuy Suggestion = "Compra Moderada"
	SuggestionHold        Suggestion = "Mantener"
	SuggestionSell        Suggestion = "Vender"
)

// PredictionRequest holds validated, normalized form input. It is passed by
// value so callers cannot mutate a request after it was built.
type PredictionRequest struct {
	Symbol         string    `json:"symbol"`
	Timeframe      Timeframe `json:"timeframe"`
	ImportantEvent string    `json:"important_event"`
	CurrentPrice   *float64  `json:"current_price"`
}

// HasCurrentPrice reports whether a usable price anchor was supplied.
// A zero price counts as absent.
func (r PredictionRequest) HasCurrentPrice() bool {
	return r.CurrentPrice != nil && *r.CurrentPrice != 0
}

// SourceKind distinguishes web citations from map citations.
type SourceKind string

const (
	SourceWeb  SourceKind = "web"
	SourceMaps SourceKind = "maps"
)

// GroundingSource is a citation the provider used to ground its answer.
type GroundingSource struct {
	Kind  SourceKind `json:"kind"`
	URI   string     `json:"uri"`
	Title string     `json:"title,omitempty"`
}

// DisplayTitle falls back to the URI when the provider sent no title.
func (s GroundingSource) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return s.URI
}

// GroundingSources is stored as a JSON array in a single TEXT column.
// Implementing driver.Valuer and sql.Scanner lets sqlx handle it transparently.
type GroundingSources []GroundingSource

// Value implements driver.Valuer.
func (g GroundingSources) Value() (driver.Value, error) {
	if g == nil {
		g = GroundingSources{}
	}
	b, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encoding grounding sources: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (g *GroundingSources) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*g = GroundingSources{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported grounding sources type %T", src)
	}
	var out GroundingSources
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decoding grounding sources: %w", err)
	}
	if out == nil {
		out = GroundingSources{}
	}
	*g = out
	return nil
}

// PredictionResult is what the prediction client extracts from one model reply.
// Prediction is always set; Suggestion and ProjectedPrice are nil when the reply
// did not contain them.
type PredictionResult struct {
	Prediction       Prediction       `json:"prediction"`
	Reasoning        string           `json:"reasoning"`
	Suggestion       *Suggestion      `json:"suggestion,omitempty"`
	ProjectedPrice   *string          `json:"projected_price,omitempty"`
	GroundingSources GroundingSources `json:"grounding_sources"`
}

// PredictionRecord is one row of the prediction history.
type PredictionRecord struct {
	ID               int64            `db:"id" json:"id"`
	Symbol           string           `db:"symbol" json:"symbol"`
	Timeframe        Timeframe        `db:"timeframe" json:"timeframe"`
	ImportantEvent   string           `db:"important_event" json:"important_event"`
	CurrentPrice     *float64         `db:"current_price" json:"current_price,omitempty"`
	Prediction       Prediction       `db:"prediction" json:"prediction"`
	Reasoning        string           `db:"reasoning" json:"reasoning"`
	Suggestion       *Suggestion      `db:"suggestion" json:"suggestion,omitempty"`
	ProjectedPrice   *string          `db:"projected_price" json:"projected_price,omitempty"`
	GroundingSources GroundingSources `db:"grounding_sources" json:"grounding_sources"`
	Provider         string           `db:"provider" json:"provider"`
	Model            string           `db:"model" json:"model"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
}

// NewPredictionRecord combines a request and its result into a history row.
func NewPredictionRecord(req PredictionRequest, res *PredictionResult, provider, modelName string) *PredictionRecord {
	return &PredictionRecord{
		Symbol:           req.Symbol,
		Timeframe:        req.Timeframe,
		ImportantEvent:   req.ImportantEvent,
		CurrentPrice:     req.CurrentPrice,
		Prediction:       res.Prediction,
		Reasoning:        res.Reasoning,
		Suggestion:       res.Suggestion,
		ProjectedPrice:   res.ProjectedPrice,
		GroundingSources: res.GroundingSources,
		Provider:         provider,
		Model:            modelName,
	}
}

// LLMCall tracks each call to an LLM provider for cost monitoring.
type LLMCall struct {
	ID           int64     `db:"id" json:"id"`
	Symbol       string    `db:"symbol" json:"symbol"`
	Provider     string    `db:"provider" json:"provider"`
	Model        string    `db:"model" json:"model"`
	Success      bool      `db:"success" json:"success"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	DurationMs   *int64    `db:"duration_ms" json:"duration_ms,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
