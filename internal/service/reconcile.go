package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
	"github.com/xiaot623/gogo/moodlog/internal/observability"
)

const reconcileBatch = 100

// RunReconciler repairs session aggregates that drifted from the ledger until
// ctx is done. It returns immediately when the interval is zero.
func (s *Service) RunReconciler(ctx context.Context) {
	if s.config.ReconcileInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.config.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reconcileSessions(ctx)
		}
	}
}

// reconcileSessions runs one sweep and returns how many sessions it repaired.
func (s *Service) reconcileSessions(ctx context.Context) int {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tokens, err := s.store.ListDriftedSessions(sweepCtx, s.now().Add(-s.config.ReconcileGrace), reconcileBatch)
	if err != nil {
		slog.Warn("session reconcile sweep failed", "error", err)
		return 0
	}

	repaired := 0
	for _, token := range tokens {
		// The session is read before the ledger so a live write landing in
		// between moves the count and fails the compare-and-set below.
		current, err := s.store.GetSession(sweepCtx, token)
		if err != nil {
			slog.Warn("failed to load session", "session", observability.TokenPrefix(token), "error", err)
			continue
		}
		summary, err := s.store.SummarizeLedger(sweepCtx, token)
		if err != nil {
			slog.Warn("failed to summarize ledger", "session", observability.TokenPrefix(token), "error", err)
			continue
		}

		expected := int64(-1)
		if current != nil {
			expected = current.ConversationCount
		}
		next := domain.RebuildSession(token, current, *summary)

		ok, err := s.store.RepairSession(sweepCtx, next, expected)
		if err != nil {
			slog.Warn("failed to repair session", "session", observability.TokenPrefix(token), "error", err)
			continue
		}
		if !ok {
			// A live update got there first; the next sweep looks again.
			continue
		}
		repaired++
		s.metrics.SessionRepaired()
		slog.Info("session repaired", "session", observability.TokenPrefix(token), "conversation_count", next.ConversationCount, "previous_count", expected)
	}
	return repaired
}
