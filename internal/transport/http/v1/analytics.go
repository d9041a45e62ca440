package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
)

// Analytics handles GET /v1/analytics?days=.
func (h *Handler) Analytics(c echo.Context) error {
	days, err := positiveQueryInt(c, "days", h.config.AnalyticsDefaultDays)
	if err != nil {
		return writeError(c, err)
	}

	token, _ := sessionFromContext(c)
	result, err := h.service.Analytics(c.Request().Context(), token, days)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, domain.AnalyticsResponse{
		Analytics:    *result,
		SessionToken: token,
	})
}
