// Package v1 provides the public HTTP handlers of moodlog.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/moodlog/internal/config"
	"github.com/xiaot623/gogo/moodlog/internal/service"
	"github.com/xiaot623/gogo/moodlog/internal/session"
)

// Version is reported by /health.
const Version = "0.1.0"

// Handler handles HTTP requests.
type Handler struct {
	service  *service.Service
	resolver *session.Resolver
	config   *config.Config
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service, cfg *config.Config) *Handler {
	return &Handler{
		service:  service,
		resolver: session.NewResolver(),
		config:   cfg,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/v1", h.SessionMiddleware)

	api.POST("/analyze", h.Analyze)
	api.GET("/history", h.History)
	api.GET("/analytics", h.Analytics)
	api.POST("/conversations/:conversation_id/feedback", h.SubmitFeedback)

	e.GET("/health", h.Health)
}

// Health reports the state of the classifier and the database. A missing
// classifier degrades the service, a missing database makes it unhealthy.
func (h *Handler) Health(c echo.Context) error {
	report := h.service.Health(c.Request().Context())

	status, code := "healthy", http.StatusOK
	switch {
	case report.Database != service.StatusOK:
		status, code = "unhealthy", http.StatusServiceUnavailable
	case report.Classifier != service.StatusOK:
		status = "degraded"
	}

	return c.JSON(code, map[string]string{
		"status":     status,
		"version":    Version,
		"classifier": report.Classifier,
		"database":   report.Database,
	})
}
