package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nova-nexus-hub/nexora-forms-backend/pkg/metrics"
)

// Metrics records request counts and latencies per route.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start))
	}
}
