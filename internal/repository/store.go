// Package repository defines the storage interface and its SQL implementations.
package repository

import (
	"context"
	"time"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
)

// Store defines the interface for data persistence.
type Store interface {
	// Conversation ledger
	AppendConversation(ctx context.Context, conv *domain.Conversation) error
	ListConversations(ctx context.Context, sessionToken string, limit, offset int) ([]domain.Conversation, int64, error)
	AggregateBySentiment(ctx context.Context, sessionToken string, since time.Time) (map[domain.Sentiment]domain.SentimentStat, error)
	UpdateConversationFeedback(ctx context.Context, sessionToken, conversationID string, feedback domain.Feedback) (bool, error)
	SummarizeLedger(ctx context.Context, sessionToken string) (*domain.LedgerSummary, error)

	// Session aggregates. UpsertSession must be a single atomic statement.
	UpsertSession(ctx context.Context, update domain.SessionUpdate) (*domain.Session, error)
	GetSession(ctx context.Context, sessionToken string) (*domain.Session, error)

	// Repair. RepairSession writes only if the stored count still equals
	// expectedCount; a negative expectedCount means the row must not exist.
	ListDriftedSessions(ctx context.Context, quietBefore time.Time, limit int) ([]string, error)
	RepairSession(ctx context.Context, session domain.Session, expectedCount int64) (bool, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

// Ensure implementations satisfy Store.
var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
