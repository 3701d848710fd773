// Package collector turns raw form values into a validated PredictionRequest.
// It performs no network access and keeps no state: it either returns a
// normalized request or a *FieldError naming the offending field.
package collector

import (
	"math"
	"strconv"
	"strings"

	"github.com/fleveque/mercado-futuro/internal/model"
)

// Field names used in FieldError and in the form markup.
const (
	FieldSymbol       = "symbol"
	FieldTimeframe    = "timeframe"
	FieldCurrentPrice = "current_price"
)

// RawInput is the form exactly as submitted. Struct tags let gin bind it
// from both url-encoded forms and JSON bodies.
type RawInput struct {
	Symbol         string `form:"symbol" json:"symbol"`
	Timeframe      string `form:"timeframe" json:"timeframe"`
	ImportantEvent string `form:"important_event" json:"important_event"`
	CurrentPrice   string `form:"current_price" json:"current_price"`
}

// FieldError reports a validation failure on a single form field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Collect validates and normalizes raw input.
//
// The symbol is trimmed and uppercased and must not be empty. An empty
// timeframe falls back to the form default. A non-empty price must parse as a
// finite number; anything else aborts the submission.
func Collect(in RawInput) (model.PredictionRequest, error) {
	symbol := strings.TrimSpace(in.Symbol)
	if symbol == "" {
		return model.PredictionRequest{}, &FieldError{
			Field:   FieldSymbol,
			Message: "Por favor, introduce un símbolo bursátil.",
		}
	}

	tf := strings.TrimSpace(in.Timeframe)
	if tf == "" {
		tf = string(model.DefaultTimeframe)
	}
	if !model.ValidTimeframe(tf) {
		return model.PredictionRequest{}, &FieldError{
			Field:   FieldTimeframe,
			Message: "Por favor, selecciona un marco temporal válido.",
		}
	}

	price, err := parsePrice(in.CurrentPrice)
	if err != nil {
		return model.PredictionRequest{}, err
	}

	return model.PredictionRequest{
		Symbol:         strings.ToUpper(symbol),
		Timeframe:      model.Timeframe(tf),
		ImportantEvent: strings.TrimSpace(in.ImportantEvent),
		CurrentPrice:   price,
	}, nil
}

func parsePrice(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	// ParseFloat accepts "NaN" and "Inf", which are not prices.
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, &FieldError{
			Field:   FieldCurrentPrice,
			Message: "Por favor, introduce un número válido para el precio actual.",
		}
	}
	return &v, nil
}
