package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
	"github.com/xiaot623/gogo/moodlog/tests/helpers"
)

func validInput(token, text string, sentiment domain.Sentiment) domain.ConversationInput {
	return domain.ConversationInput{
		SessionToken: token,
		Text:         text,
		Classification: domain.Classification{
			Sentiment:       sentiment,
			ConfidenceScore: 0.9,
			Recommendation:  "keep going",
		},
		ProcessingTimeMs: 12,
	}
}

func TestAppendStoresTrimmedRecord(t *testing.T) {
	ctx := context.Background()
	l := New(helpers.NewTestSQLiteStore(t), 1000)

	conv, err := l.Append(ctx, validInput("s1", "  a good day  ", domain.SentimentPositive))
	require.NoError(t, err)
	assert.Equal(t, "a good day", conv.Text)
	assert.NotNil(t, conv.AdditionalTips)
	assert.False(t, conv.CreatedAt.IsZero())

	id, err := uuid.Parse(conv.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	items, total, err := l.List(ctx, "s1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, conv.ID, items[0].ID)
	assert.Equal(t, "a good day", items[0].Text)
}

func TestAppendValidation(t *testing.T) {
	l := New(helpers.NewTestSQLiteStore(t), 10)

	tests := []struct {
		name   string
		mutate func(*domain.ConversationInput)
	}{
		{"empty text", func(in *domain.ConversationInput) { in.Text = "   " }},
		{"text too long", func(in *domain.ConversationInput) { in.Text = strings.Repeat("a", 11) }},
		{"missing token", func(in *domain.ConversationInput) { in.SessionToken = "" }},
		{"unknown sentiment", func(in *domain.ConversationInput) { in.Classification.Sentiment = "HAPPY" }},
		{"score above one", func(in *domain.ConversationInput) { in.Classification.ConfidenceScore = 1.01 }},
		{"negative score", func(in *domain.ConversationInput) { in.Classification.ConfidenceScore = -0.1 }},
		{"negative processing time", func(in *domain.ConversationInput) { in.ProcessingTimeMs = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput("s1", "fine", domain.SentimentNeutral)
			tt.mutate(&in)
			_, err := l.Append(context.Background(), in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
		})
	}

	_, total, err := l.List(context.Background(), "s1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestAppendCountsCharactersNotBytes(t *testing.T) {
	l := New(helpers.NewTestSQLiteStore(t), 5)
	_, err := l.Append(context.Background(), validInput("s1", "héllo", domain.SentimentNeutral))
	assert.NoError(t, err)
}

func TestListPaginationIsStable(t *testing.T) {
	ctx := context.Background()
	l := New(helpers.NewTestSQLiteStore(t), 1000)

	// Same timestamp for every record; ids break the tie.
	fixed := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	seen := map[string]bool{}
	for i := 0; i < 25; i++ {
		_, err := l.Append(ctx, validInput("s1", "entry", domain.SentimentPositive))
		require.NoError(t, err)
	}

	var prev string
	for offset := 0; offset < 25; offset += 10 {
		items, total, err := l.List(ctx, "s1", 10, offset)
		require.NoError(t, err)
		assert.Equal(t, int64(25), total)
		for _, item := range items {
			assert.False(t, seen[item.ID], "duplicate %s", item.ID)
			seen[item.ID] = true
			if prev != "" {
				assert.Less(t, item.ID, prev)
			}
			prev = item.ID
		}
	}
	assert.Len(t, seen, 25)
}

func TestAggregateBySentimentOmitsEmptyGroups(t *testing.T) {
	ctx := context.Background()
	l := New(helpers.NewTestSQLiteStore(t), 1000)

	for _, s := range []domain.Sentiment{domain.SentimentPositive, domain.SentimentPositive, domain.SentimentNegative} {
		_, err := l.Append(ctx, validInput("s1", "entry", s))
		require.NoError(t, err)
	}

	stats, err := l.AggregateBySentiment(ctx, "s1", time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, stats, 2)
	assert.Equal(t, int64(2), stats[domain.SentimentPositive].Count)
	assert.InDelta(t, 0.9, stats[domain.SentimentPositive].AvgConfidence, 1e-9)

	empty, err := l.AggregateBySentiment(ctx, "s1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, empty)
}
