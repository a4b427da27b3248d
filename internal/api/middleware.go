package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finsight/pkg/ratelimiter"
)

// RateLimitMiddleware rejects requests with 429 once the limiter's
// budget is spent.
func RateLimitMiddleware(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
