package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
	"github.com/xiaot623/gogo/moodlog/internal/service"
)

// History handles GET /v1/history?page=&limit=.
func (h *Handler) History(c echo.Context) error {
	page, err := positiveQueryInt(c, "page", 1)
	if err != nil {
		return writeError(c, err)
	}
	limit, err := positiveQueryInt(c, "limit", service.DefaultHistoryLimit)
	if err != nil {
		return writeError(c, err)
	}

	token, _ := sessionFromContext(c)
	result, err := h.service.History(c.Request().Context(), token, page, limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, domain.HistoryResponse{
		HistoryPage:  *result,
		SessionToken: token,
	})
}

// positiveQueryInt reads an optional positive integer query parameter.
func positiveQueryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, domain.NewValidationError("%s must be a positive integer", name)
	}
	return n, nil
}
