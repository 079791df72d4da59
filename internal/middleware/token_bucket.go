package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// TokenBucketConfig defines the submit-route rate limiter.
type TokenBucketConfig struct {
	// Requests per second refill rate
	RPS int
	// Burst size
	Burst int
}

// TokenBucket guards a route with a shared token bucket. This is a coarse
// flood control in front of the per-fingerprint limiter inside the
// submission service.
func TokenBucket(config TokenBucketConfig) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(config.RPS), config.Burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":  "error",
				"message": "Too many requests. Please try again later.",
			})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.RPS))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))

		c.Next()
	}
}
