// Package aggregate maintains the rolling per-session counters.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
)

// Store is the persistence the aggregates need. UpsertSession must apply the
// update in one atomic statement.
type Store interface {
	UpsertSession(ctx context.Context, update domain.SessionUpdate) (*domain.Session, error)
	GetSession(ctx context.Context, sessionToken string) (*domain.Session, error)
}

// Aggregates records analyses against session counters.
type Aggregates struct {
	store Store
	now   func() time.Time
}

// New creates an Aggregates backed by store.
func New(store Store) *Aggregates {
	return &Aggregates{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// UpsertAndRecord creates the session on first use and records one analysis.
// A zero At is replaced by the current time.
func (a *Aggregates) UpsertAndRecord(ctx context.Context, update domain.SessionUpdate) (*domain.Session, error) {
	if update.Token == "" {
		return nil, domain.NewValidationError("session token is required")
	}
	if !update.Sentiment.Valid() {
		return nil, domain.NewValidationError("unknown sentiment %q", update.Sentiment)
	}
	if update.ProcessingTimeMs < 0 {
		return nil, domain.NewValidationError("processing time must not be negative")
	}
	if update.At.IsZero() {
		update.At = a.now()
	}
	session, err := a.store.UpsertSession(ctx, update)
	if err != nil {
		return nil, fmt.Errorf("upsert session: %w", err)
	}
	return session, nil
}

// Get returns the session for token, or nil if it has none.
func (a *Aggregates) Get(ctx context.Context, sessionToken string) (*domain.Session, error) {
	session, err := a.store.GetSession(ctx, sessionToken)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}
