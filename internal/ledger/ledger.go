// Package ledger is the append-only record of analyzed journal entries.
package ledger

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
)

// Store is the persistence the ledger needs.
type Store interface {
	AppendConversation(ctx context.Context, conv *domain.Conversation) error
	ListConversations(ctx context.Context, sessionToken string, limit, offset int) ([]domain.Conversation, int64, error)
	AggregateBySentiment(ctx context.Context, sessionToken string, since time.Time) (map[domain.Sentiment]domain.SentimentStat, error)
}

// Ledger validates and records conversations.
type Ledger struct {
	store         Store
	maxTextLength int
	now           func() time.Time
	newID         func() (uuid.UUID, error)
}

// New creates a ledger. maxTextLength of 0 disables the length bound.
func New(store Store, maxTextLength int) *Ledger {
	return &Ledger{
		store:         store,
		maxTextLength: maxTextLength,
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewV7,
	}
}

// Append validates in and stores it as a new conversation.
func (l *Ledger) Append(ctx context.Context, in domain.ConversationInput) (*domain.Conversation, error) {
	if in.SessionToken == "" {
		return nil, domain.NewValidationError("session token is required")
	}
	text, err := domain.NormalizeText(in.Text, l.maxTextLength)
	if err != nil {
		return nil, err
	}
	c := in.Classification
	if !c.Sentiment.Valid() {
		return nil, domain.NewValidationError("unknown sentiment %q", c.Sentiment)
	}
	if math.IsNaN(c.ConfidenceScore) || c.ConfidenceScore < 0 || c.ConfidenceScore > 1 {
		return nil, domain.NewValidationError("confidence score %v outside [0,1]", c.ConfidenceScore)
	}
	if in.ProcessingTimeMs < 0 {
		return nil, domain.NewValidationError("processing time must not be negative")
	}

	id, err := l.newID()
	if err != nil {
		return nil, fmt.Errorf("generate conversation id: %w", err)
	}
	tips := c.AdditionalTips
	if tips == nil {
		tips = []string{}
	}
	conv := &domain.Conversation{
		ID:               id.String(),
		SessionToken:     in.SessionToken,
		Text:             text,
		Sentiment:        c.Sentiment,
		ConfidenceScore:  c.ConfidenceScore,
		Recommendation:   c.Recommendation,
		AdditionalTips:   tips,
		ProcessingTimeMs: in.ProcessingTimeMs,
		Client:           in.Client,
		CreatedAt:        l.now(),
	}
	if err := l.store.AppendConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("append conversation: %w", err)
	}
	return conv, nil
}

// List returns one page of a session's conversations, newest first, and the
// unpaginated total.
func (l *Ledger) List(ctx context.Context, sessionToken string, limit, offset int) ([]domain.Conversation, int64, error) {
	items, total, err := l.store.ListConversations(ctx, sessionToken, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list conversations: %w", err)
	}
	return items, total, nil
}

// AggregateBySentiment groups a session's conversations created at or after
// since. Sentiments without records are absent from the result.
func (l *Ledger) AggregateBySentiment(ctx context.Context, sessionToken string, since time.Time) (map[domain.Sentiment]domain.SentimentStat, error) {
	stats, err := l.store.AggregateBySentiment(ctx, sessionToken, since)
	if err != nil {
		return nil, fmt.Errorf("aggregate conversations: %w", err)
	}
	return stats, nil
}
