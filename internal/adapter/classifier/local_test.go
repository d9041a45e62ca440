package classifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
	"github.com/xiaot623/gogo/moodlog/policy"
)

func newTestLocalClient(t *testing.T) *LocalClient {
	t.Helper()
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)
	return NewLocalClient(engine)
}

func TestLocalClientClassify(t *testing.T) {
	client := newTestLocalClient(t)

	tests := []struct {
		text      string
		sentiment domain.Sentiment
	}{
		{"I feel great today", domain.SentimentPositive},
		{"So happy and grateful, what a wonderful day!", domain.SentimentPositive},
		{"I'm anxious and worried about tomorrow", domain.SentimentNegative},
		{"It is Tuesday.", domain.SentimentNeutral},
		{"Happy about the trip but sad to leave", domain.SentimentMixed},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			result, err := client.Classify(context.Background(), tt.text, time.Second)
			require.NoError(t, err)
			assert.Equal(t, tt.sentiment, result.Sentiment)
			assert.True(t, result.Sentiment.Valid())
			assert.GreaterOrEqual(t, result.ConfidenceScore, 0.0)
			assert.LessOrEqual(t, result.ConfidenceScore, 1.0)
			assert.NotEmpty(t, result.Recommendation)
			assert.Len(t, result.AdditionalTips, 4)
		})
	}
}

func TestLocalClientAnxiousRecommendation(t *testing.T) {
	client := newTestLocalClient(t)

	result, err := client.Classify(context.Background(), "I am anxious", time.Second)
	require.NoError(t, err)
	assert.Contains(t, result.Recommendation, "anxious")
}

func TestLocalClientCancelled(t *testing.T) {
	client := newTestLocalClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Classify(ctx, "I feel great", time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScoreBounds(t *testing.T) {
	label, confidence := score("great great great")
	assert.Equal(t, domain.SentimentPositive, label)
	assert.InDelta(t, 0.99, confidence, 1e-9)

	label, confidence = score("")
	assert.Equal(t, domain.SentimentNeutral, label)
	assert.Equal(t, 0.5, confidence)
}
