package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nova-nexus-hub/nexora-forms-backend/internal/models"
)

// Recovery turns a panic into the generic error result. The stack trace goes
// to the log, never to the response.
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.WithFields(logrus.Fields{
					"request_id": GetRequestID(c),
					"method":     c.Request.Method,
					"path":       c.Request.URL.Path,
					"client_ip":  c.ClientIP(),
					"panic":      err,
					"stack":      string(debug.Stack()),
				}).Error("Panic recovered")

				c.AbortWithStatusJSON(http.StatusInternalServerError,
					models.ErrorResult("An error occurred. Please try again."))
			}
		}()

		c.Next()
	}
}
