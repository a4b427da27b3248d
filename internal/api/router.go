package api

import (
	"github.com/gin-gonic/gin"

	"finsight/pkg/ratelimiter"
)

// RegisterRoutes registers all routes of the query service.
func RegisterRoutes(router *gin.Engine, api *API, limiter ratelimiter.RateLimiter) {
	router.GET("/healthz", api.HealthHandler)

	// All routes will be under /api/v1
	v1 := router.Group("/api/v1")
	if limiter != nil {
		v1.Use(RateLimitMiddleware(limiter))
	}
	{
		v1.POST("/query", api.QueryHandler)
		v1.POST("/documents", api.UploadHandler)
	}
}
