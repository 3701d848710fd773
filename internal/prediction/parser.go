package prediction

import (
	"regexp"
	"strings"

	"github.com/fleveque/mercado-futuro/internal/model"
)

// Labels the model is told to prefix each field with.
const (
	labelPrediction     = "Predicción:"
	labelReasoning      = "Razonamiento:"
	labelSuggestion     = "Sugerencia:"
	labelProjectedPrice = "Precio Proyectado:"
)

// All patterns are case-insensitive. (?s) lets . cross newlines, and without
// (?m) a bare $ means end of text.
var (
	predictionRe     = regexp.MustCompile(`(?i)Predicción:\s*(Up|Down|Stable)`)
	reasoningRe      = regexp.MustCompile(`(?is)Razonamiento:\s*(.*?)(?:Sugerencia:|$)`)
	suggestionRe     = regexp.MustCompile(`(?i)Sugerencia:\s*(Compra Moderada|Mantener|Vender)`)
	projectedPriceRe = regexp.MustCompile(`(?is)Precio Proyectado:\s*(.*)`)
)

// ParseResponse extracts a PredictionResult from the model's free text.
//
// It never fails. A missing prediction defaults to Stable, a missing
// reasoning label yields the whole reply, and a missing suggestion or
// projected price stays nil.
func ParseResponse(text string, sources []model.GroundingSource) *model.PredictionResult {
	res := &model.PredictionResult{
		Prediction:       model.PredictionStable,
		Reasoning:        strings.TrimSpace(text),
		GroundingSources: model.GroundingSources{},
	}

	if m := predictionRe.FindStringSubmatch(text); m != nil {
		res.Prediction = canonicalPrediction(m[1])
	}

	if m := reasoningRe.FindStringSubmatch(text); m != nil {
		res.Reasoning = strings.TrimSpace(m[1])
	}

	if m := suggestionRe.FindStringSubmatch(text); m != nil {
		s := canonicalSuggestion(m[1])
		res.Suggestion = &s
	}

	if m := projectedPriceRe.FindStringSubmatch(text); m != nil {
		if p := strings.TrimSpace(m[1]); p != "" {
			res.ProjectedPrice = &p
		}
	}

	if len(sources) > 0 {
		res.GroundingSources = append(res.GroundingSources, sources...)
	}

	return res
}

// canonicalPrediction maps a case-insensitive match to the enum value.
func canonicalPrediction(s string) model.Prediction {
	switch strings.ToLower(s) {
	case "up":
		return model.PredictionUp
	case "down":
		return model.PredictionDown
	default:
		return model.PredictionStable
	}
}

func canonicalSuggestion(s string) model.Suggestion {
	switch strings.ToLower(s) {
	case "compra moderada":
		return model.SuggestionModerateBuy
	case "vender":
		return model.SuggestionSell
	default:
		return model.SuggestionHold
	}
}
