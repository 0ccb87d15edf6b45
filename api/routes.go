package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *Handlers) {
	// API group
	api := r.Group("/api")

	api.GET("/health", h.Health)

	// App routes
	api.GET("/apps", h.ListApps)
	api.POST("/apps", h.AddApp)
	api.GET("/apps/:appId", h.GetApp)

	// Review routes
	api.GET("/apps/:appId/reviews", h.ListReviews)
	api.POST("/apps/:appId/reviews", h.ImportReviews)
	api.GET("/apps/:appId/reviews/search", h.SearchReviews)
	api.POST("/apps/:appId/reviews/reindex", h.ReindexReviews)

	// Summary routes
	api.POST("/apps/:appId/summary", h.GenerateSummary)
	api.GET("/apps/:appId/summary/latest", h.GetLatestSummary)

	// User routes
	api.POST("/users/login", h.Login)
	api.GET("/users/:googleId", h.GetUser)
	api.GET("/users/:googleId/summary-count", h.GetSummaryCount)

	// Notifications (SSE)
	api.GET("/notifications/stream", h.NotificationStream)

	// Sampler
	api.POST("/sample", h.Sample)
}
