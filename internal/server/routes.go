// Package server configures the HTTP server and routes.
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/mercado-futuro/internal/config"
	"github.com/fleveque/mercado-futuro/internal/handler"
	"github.com/fleveque/mercado-futuro/internal/middleware"
)

// Deps are the services the handlers need. PredictionService is usually
// *service.PredictionService, which satisfies both interfaces.
type Deps struct {
	Predictor handler.Predictor
	History   handler.HistoryService
}

// RegisterRoutes sets up all HTTP routes on the Gin engine.
// Dependencies are passed explicitly; each handler gets exactly what it needs.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps, logger *zap.Logger) {
	healthHandler := handler.NewHealthHandler()
	predictionHandler := handler.NewPredictionHandler(deps.Predictor, cfg.LLM.APIKeyEnv(), logger)
	adminHandler := handler.NewAdminHandler(deps.History, logger)

	// Public endpoints (no auth)
	r.GET("/healthz", healthHandler.Healthz)

	// The browser form. Every submission is a paid LLM call, so it shares
	// the rate limit policy of the API, bucketed by client IP.
	r.GET("/", predictionHandler.Form)
	r.POST("/", middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst), predictionHandler.Submit)

	// CORS middleware applies to the entire API group.
	api := r.Group("/api/v1")
	api.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	{
		// Preflight requests need a matching route for the middleware to run.
		api.OPTIONS("/*path", func(c *gin.Context) {})
		api.GET("/timeframes", predictionHandler.Timeframes)
	}

	authed := api.Group("")
	authed.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	authed.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	{
		authed.POST("/predictions", predictionHandler.Predict)
	}

	// Admin endpoints (separate auth with admin keys)
	admin := api.Group("/admin")
	admin.Use(middleware.AdminKeyAuth(cfg.Auth.AdminKeys))
	{
		admin.GET("/stats", adminHandler.Stats)
		admin.GET("/predictions", adminHandler.ListPredictions)
		admin.GET("/predictions/:id", adminHandler.GetPrediction)
	}
}
