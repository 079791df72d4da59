package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nova-nexus-hub/nexora-forms-backend/internal/models"
	"github.com/nova-nexus-hub/nexora-forms-backend/internal/services"
)

// FormsHandler exposes the shared submit endpoint for both form flows.
type FormsHandler struct {
	service *services.SubmissionService
	logger  *logrus.Logger
}

// NewFormsHandler creates a new forms handler.
func NewFormsHandler(service *services.SubmissionService, logger *logrus.Logger) *FormsHandler {
	return &FormsHandler{
		service: service,
		logger:  logger,
	}
}

// Submit accepts an application/x-www-form-urlencoded body, flattens it to a
// string map and delegates to the submission service. The response is always
// HTTP 200 with one of the two JSON result shapes; the client reads the
// status field, not the HTTP code.
func (h *FormsHandler) Submit(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		h.logger.WithError(err).Warn("Malformed form body")
		c.JSON(http.StatusOK, models.ErrorResult("Invalid request"))
		return
	}

	fields := make(map[string]string, len(c.Request.PostForm))
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}

	result := h.service.HandleSubmission(c.Request.Context(), fields)
	c.JSON(http.StatusOK, result)
}

// Describe answers GET probes on the submit endpoint.
func (h *FormsHandler) Describe(c *gin.Context) {
	c.String(http.StatusOK, "NEXORA Forms API - POST requests only")
}
