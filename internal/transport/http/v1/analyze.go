package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
	"github.com/xiaot623/gogo/moodlog/internal/service"
)

// Analyze handles POST /v1/analyze.
func (h *Handler) Analyze(c echo.Context) error {
	var req domain.AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, domain.NewValidationError("Request body must be JSON with a text field"))
	}

	token, created := sessionFromContext(c)
	res, err := h.service.Analyze(c.Request().Context(), service.AnalyzeInput{
		SessionToken: token,
		Text:         req.Text,
		Client:       clientMetadata(c),
	})
	if err != nil {
		return writeError(c, err)
	}

	tips := res.Classification.AdditionalTips
	if tips == nil {
		tips = []string{}
	}
	return c.JSON(http.StatusOK, domain.AnalyzeResponse{
		Sentiment:        res.Classification.Sentiment,
		ConfidenceScore:  res.Classification.ConfidenceScore,
		Recommendation:   res.Classification.Recommendation,
		AdditionalTips:   tips,
		ProcessingTimeMs: res.ProcessingTimeMs,
		ConversationID:   res.ConversationID,
		SessionToken:     token,
		SessionCreated:   created,
		Status:           "success",
	})
}
