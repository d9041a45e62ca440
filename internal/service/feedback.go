package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
)

// SubmitFeedback stores the caller's verdict on one of its conversations.
// Fields left nil keep their previous value.
func (s *Service) SubmitFeedback(ctx context.Context, sessionToken, conversationID string, feedback domain.Feedback) error {
	if conversationID == "" {
		return domain.NewValidationError("conversation id is required")
	}
	if feedback.Empty() {
		return domain.NewValidationError("helpful or rating is required")
	}
	if feedback.Rating != nil && (*feedback.Rating < 1 || *feedback.Rating > 5) {
		return domain.NewValidationError("rating must be between 1 and 5")
	}

	found, err := s.store.UpdateConversationFeedback(ctx, sessionToken, conversationID, feedback)
	if err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	if !found {
		return fmt.Errorf("conversation %s: %w", conversationID, domain.ErrConversationNotFound)
	}
	return nil
}
