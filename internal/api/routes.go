// Package api wires the HTTP surface: correlation generation, chart rebuild,
// feedback intake, health probes and the key-guarded admin endpoints.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/spuriolabs/spurio/internal/api/handlers"
	"github.com/spuriolabs/spurio/internal/cache"
	"github.com/spuriolabs/spurio/internal/middleware"
)

// Dependencies carries everything the routes need.
type Dependencies struct {
	Generator      handlers.Generator
	EngineStats    handlers.EngineStats
	Records        cache.RecordStore
	Feedback       handlers.FeedbackStore
	Notifier       handlers.Notifier
	DB             handlers.HealthChecker
	Redis          handlers.HealthChecker
	Collector      handlers.PoolCounter
	RateLimiter    *middleware.RateLimiter
	AdminKeyHash   string
	ShareThreshold float64
	SampleSize     int
	Version        string
	Logger         *logrus.Logger
}

// SetupRoutes registers every route on the router.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	health := handlers.NewHealthHandler(deps.DB, deps.Redis, deps.Collector, deps.Version)
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	correlation := handlers.NewCorrelationHandler(
		deps.Generator, deps.Records, deps.Notifier,
		deps.ShareThreshold, deps.SampleSize, deps.Logger,
	)
	feedbackHandler := handlers.NewFeedbackHandler(deps.Feedback, deps.Records, deps.Logger)
	admin := handlers.NewAdminHandler(deps.EngineStats, deps.Records, deps.Logger)

	apiGroup := router.Group("/api")
	if deps.RateLimiter != nil {
		apiGroup.Use(deps.RateLimiter.Limit())
	}
	{
		correlationGroup := apiGroup.Group("/correlation")
		{
			correlationGroup.GET("/random", correlation.GetRandomCorrelation)
			correlationGroup.GET("/graph/:id", correlation.GetCorrelationGraph)
		}

		apiGroup.POST("/feedback", feedbackHandler.SubmitFeedback)
		apiGroup.GET("/feedback/stats", feedbackHandler.GetFeedbackStats)

		adminAuth := middleware.NewAdminMiddleware(deps.AdminKeyHash)
		adminGroup := apiGroup.Group("/admin")
		adminGroup.Use(adminAuth.RequireAdminAuth())
		{
			adminGroup.GET("/system", admin.GetSystemStats)
			adminGroup.GET("/cache/stats", admin.GetCacheStats)
			adminGroup.POST("/cache/clear", admin.ClearCache)
		}
	}
}
