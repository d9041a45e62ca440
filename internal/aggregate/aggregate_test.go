package aggregate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
	"github.com/xiaot623/gogo/moodlog/tests/helpers"
)

func TestUpsertAndRecordCreatesThenIncrements(t *testing.T) {
	ctx := context.Background()
	a := New(helpers.NewTestSQLiteStore(t))

	got, err := a.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)

	first, err := a.UpsertAndRecord(ctx, domain.SessionUpdate{Token: "s1", Sentiment: domain.SentimentNegative, ProcessingTimeMs: 40})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ConversationCount)
	assert.Equal(t, int64(1), first.MoodTrend.Negative)
	assert.False(t, first.FirstInteraction.IsZero())

	second, err := a.UpsertAndRecord(ctx, domain.SessionUpdate{Token: "s1", Sentiment: domain.SentimentNeutral, ProcessingTimeMs: 60})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ConversationCount)
	assert.Equal(t, int64(100), second.TotalProcessingTimeMs)
	assert.Equal(t, first.FirstInteraction, second.FirstInteraction)
	assert.False(t, second.LastInteraction.Before(first.LastInteraction))
	assert.InDelta(t, 50.0, second.Stats().AverageProcessingTimeMs, 1e-9)
}

func TestUpsertAndRecordRejectsInvalidUpdate(t *testing.T) {
	a := New(helpers.NewTestSQLiteStore(t))

	_, err := a.UpsertAndRecord(context.Background(), domain.SessionUpdate{Token: "s1", Sentiment: "HAPPY"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = a.UpsertAndRecord(context.Background(), domain.SessionUpdate{Sentiment: domain.SentimentMixed})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestUpsertAndRecordConcurrentSameToken(t *testing.T) {
	ctx := context.Background()
	a := New(helpers.NewTestSQLiteStore(t))

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := a.UpsertAndRecord(ctx, domain.SessionUpdate{
				Token:            "shared",
				Sentiment:        domain.Sentiments[i%len(domain.Sentiments)],
				ProcessingTimeMs: 2,
				At:               time.Now(),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	session, err := a.Get(ctx, "shared")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, int64(n), session.ConversationCount)
	assert.Equal(t, int64(2*n), session.TotalProcessingTimeMs)
	assert.True(t, session.Consistent())
}
