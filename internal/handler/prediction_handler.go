package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/mercado-futuro/internal/collector"
	"github.com/fleveque/mercado-futuro/internal/model"
	"github.com/fleveque/mercado-futuro/internal/prediction"
	"github.com/fleveque/mercado-futuro/internal/web"
)

// Predictor runs a single prediction. *service.PredictionService satisfies it.
type Predictor interface {
	Predict(ctx context.Context, req model.PredictionRequest) (*model.PredictionResult, error)
}

// PredictionHandler serves the HTML form and the JSON prediction API.
// Both go through the collector first, so invalid input never reaches the
// predictor.
type PredictionHandler struct {
	predictor Predictor
	// keyEnv names the API key variable in authentication hints.
	keyEnv string
	logger *zap.Logger
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(predictor Predictor, keyEnv string, logger *zap.Logger) *PredictionHandler {
	return &PredictionHandler{
		predictor: predictor,
		keyEnv:    keyEnv,
		logger:    logger,
	}
}

// Form renders the empty form.
// Route: GET /
func (h *PredictionHandler) Form(c *gin.Context) {
	c.HTML(http.StatusOK, web.IndexTemplate, web.NewPage(collector.RawInput{}))
}

// Submit handles a form post and re-renders the page with either the inline
// field error (422), the error banner (502) or the result panel.
// Route: POST /
func (h *PredictionHandler) Submit(c *gin.Context) {
	var raw collector.RawInput
	if err := c.ShouldBind(&raw); err != nil {
		c.HTML(http.StatusBadRequest, web.IndexTemplate, web.NewPage(raw))
		return
	}

	page := web.NewPage(raw)

	req, err := collector.Collect(raw)
	if err != nil {
		var fe *collector.FieldError
		if errors.As(err, &fe) {
			page.FieldError = fe
		}
		c.HTML(http.StatusUnprocessableEntity, web.IndexTemplate, page)
		return
	}

	res, err := h.predictor.Predict(c.Request.Context(), req)
	if err != nil {
		h.logger.Warn("prediction failed", zap.String("symbol", req.Symbol), zap.Error(err))
		page.Error = prediction.UserMessage(err, h.keyEnv)
		c.HTML(http.StatusBadGateway, web.IndexTemplate, page)
		return
	}

	page.Request = &req
	page.Result = res
	c.HTML(http.StatusOK, web.IndexTemplate, page)
}

// predictionInput is the JSON body of the prediction API. current_price may
// be a number, a numeric string or null.
type predictionInput struct {
	Symbol         string `json:"symbol"`
	Timeframe      string `json:"timeframe"`
	ImportantEvent string `json:"important_event"`
	CurrentPrice   any    `json:"current_price"`
}

func (in predictionInput) raw() collector.RawInput {
	raw := collector.RawInput{
		Symbol:         in.Symbol,
		Timeframe:      in.Timeframe,
		ImportantEvent: in.ImportantEvent,
	}
	// Type switch: the JSON decoder produces float64 for numbers.
	switch v := in.CurrentPrice.(type) {
	case float64:
		raw.CurrentPrice = strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		raw.CurrentPrice = v
	case nil:
	default:
		// Booleans, arrays and objects fail the collector's number check.
		raw.CurrentPrice = "invalid"
	}
	return raw
}

type predictionResponse struct {
	Request model.PredictionRequest `json:"request"`
	Result  *model.PredictionResult `json:"result"`
}

// Predict is the JSON counterpart of Submit.
// Route: POST /api/v1/predictions
func (h *PredictionHandler) Predict(c *gin.Context) {
	var in predictionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	req, err := collector.Collect(in.raw())
	if err != nil {
		var fe *collector.FieldError
		if errors.As(err, &fe) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fe.Message, "field": fe.Field})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	res, err := h.predictor.Predict(c.Request.Context(), req)
	if err != nil {
		h.logger.Warn("prediction failed", zap.String("symbol", req.Symbol), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": prediction.UserMessage(err, h.keyEnv)})
		return
	}

	c.JSON(http.StatusOK, predictionResponse{Request: req, Result: res})
}

type timeframeView struct {
	Value   model.Timeframe `json:"value"`
	Label   string          `json:"label"`
	Default bool            `json:"default,omitempty"`
}

// Timeframes lists the accepted timeframe values in display order.
// Route: GET /api/v1/timeframes
func (h *PredictionHandler) Timeframes(c *gin.Context) {
	out := make([]timeframeView, 0, len(model.AllTimeframes))
	for _, tf := range model.AllTimeframes {
		out = append(out, timeframeView{Value: tf, Label: tf.Label(), Default: tf == model.DefaultTimeframe})
	}
	c.JSON(http.StatusOK, gin.H{"timeframes": out})
}
