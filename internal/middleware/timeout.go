package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nova-nexus-hub/nexora-forms-backend/internal/models"
)

// Timeout bounds request handling. Handlers see the deadline through the
// request context; an expired deadline answers with the generic error shape.
func Timeout(timeout time.Duration, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		finished := make(chan struct{})
		go func() {
			c.Next()
			close(finished)
		}()

		select {
		case <-finished:
		case <-ctx.Done():
			logger.WithFields(logrus.Fields{
				"request_id": GetRequestID(c),
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
				"timeout":    timeout.String(),
			}).Warn("Request timeout")

			c.AbortWithStatusJSON(http.StatusGatewayTimeout,
				models.ErrorResult("Request took too long to process"))
		}
	}
}
