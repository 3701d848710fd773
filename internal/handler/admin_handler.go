package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/mercado-futuro/internal/model"
	"github.com/fleveque/mercado-futuro/internal/service"
	"github.com/fleveque/mercado-futuro/internal/storage"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// HistoryService is the read side of the prediction service.
type HistoryService interface {
	History(ctx context.Context, limit int) ([]model.PredictionRecord, error)
	Get(ctx context.Context, id int64) (*model.PredictionRecord, error)
	Stats(ctx context.Context) (*service.Stats, error)
}

// AdminHandler handles administrative endpoints.
type AdminHandler struct {
	history HistoryService
	logger  *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(history HistoryService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		history: history,
		logger:  logger,
	}
}

// Stats returns prediction and LLM usage counters.
// Route: GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.history.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("loading stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListPredictions returns the most recent predictions.
// Route: GET /api/v1/admin/predictions?limit=20
func (h *AdminHandler) ListPredictions(c *gin.Context) {
	limit := defaultHistoryLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	recs, err := h.history.History(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("listing predictions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"predictions": recs,
		"count":       len(recs),
	})
}

// GetPrediction returns one stored prediction.
// Route: GET /api/v1/admin/predictions/:id
func (h *AdminHandler) GetPrediction(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid prediction id"})
		return
	}

	rec, err := h.history.Get(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "prediction not found"})
		return
	}
	if err != nil {
		h.logger.Error("getting prediction", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, rec)
}
