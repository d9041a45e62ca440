package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
)

// newTestPostgresStore connects to MOODLOG_TEST_POSTGRES_URL, skipping when unset.
func newTestPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	url := os.Getenv("MOODLOG_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("MOODLOG_TEST_POSTGRES_URL not set")
	}
	store, err := NewPostgresStore(context.Background(), url)
	if err != nil {
		t.Fatalf("failed to create postgres store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPostgresStoreLedgerAndSession(t *testing.T) {
	ctx := context.Background()
	store := newTestPostgresStore(t)
	token := uuid.NewString()

	now := time.Now().UTC().Truncate(time.Millisecond)
	conv := testConversation(uuid.NewString(), token, domain.SentimentNegative, now)
	require.NoError(t, store.AppendConversation(ctx, conv))

	page, total, err := store.ListConversations(ctx, token, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, page, 1)
	assert.Equal(t, conv.AdditionalTips, page[0].AdditionalTips)
	assert.Equal(t, domain.SentimentNegative, page[0].Sentiment)

	rating := 5
	found, err := store.UpdateConversationFeedback(ctx, token, conv.ID, domain.Feedback{Rating: &rating})
	require.NoError(t, err)
	assert.True(t, found)

	stats, err := store.AggregateBySentiment(ctx, token, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[domain.SentimentNegative].Count)

	for i := 0; i < 3; i++ {
		_, err := store.UpsertSession(ctx, domain.SessionUpdate{Token: token, Sentiment: domain.SentimentNegative, ProcessingTimeMs: 5, At: now})
		require.NoError(t, err)
	}
	session, err := store.GetSession(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, int64(3), session.ConversationCount)
	assert.Equal(t, int64(3), session.MoodTrend.Negative)

	summary, err := store.SummarizeLedger(ctx, token)
	require.NoError(t, err)
	ok, err := store.RepairSession(ctx, domain.RebuildSession(token, session, *summary), session.ConversationCount)
	require.NoError(t, err)
	assert.True(t, ok)

	repaired, err := store.GetSession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), repaired.ConversationCount)
}
