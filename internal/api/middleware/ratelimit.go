package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit throttles a route group with a shared token bucket. Used on
// the cross-tenant aggregation endpoints, which fan a query out to every
// tenant database per request.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded, slow down"})
			c.Abort()
			return
		}
		c.Next()
	}
}
