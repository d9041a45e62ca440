package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
)

// SubmitFeedback handles POST /v1/conversations/:conversation_id/feedback.
func (h *Handler) SubmitFeedback(c echo.Context) error {
	conversationID := c.Param("conversation_id")

	var req domain.FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, domain.NewValidationError("Request body must be JSON"))
	}

	token, _ := sessionFromContext(c)
	err := h.service.SubmitFeedback(c.Request().Context(), token, conversationID, domain.Feedback{
		Helpful: req.Helpful,
		Rating:  req.Rating,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, domain.FeedbackResponse{
		ConversationID: conversationID,
		Status:         "success",
	})
}
