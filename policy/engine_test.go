package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(context.Background(), DefaultPolicy)
	require.NoError(t, err)
	return engine
}

func TestRecommendSelectsBranch(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name   string
		input  Input
		prefix string
	}{
		{"very positive", Input{Sentiment: "POSITIVE", Confidence: 0.95, Text: "great day"}, "You're radiating"},
		{"mildly positive", Input{Sentiment: "POSITIVE", Confidence: 0.7, Text: "fine day"}, "You seem to be feeling good"},
		{"anxious", Input{Sentiment: "NEGATIVE", Confidence: 0.8, Text: "so much stress and i feel sad"}, "I understand you're feeling anxious"},
		{"sad", Input{Sentiment: "NEGATIVE", Confidence: 0.8, Text: "i am sad"}, "I hear that you're going through"},
		{"angry", Input{Sentiment: "NEGATIVE", Confidence: 0.8, Text: "i am so frustrated"}, "It sounds like you're feeling frustrated"},
		{"negative other", Input{Sentiment: "NEGATIVE", Confidence: 0.8, Text: "nothing works"}, "I sense you might be"},
		{"neutral", Input{Sentiment: "NEUTRAL", Confidence: 0.5, Text: "it is tuesday"}, "Your feelings seem mixed"},
		{"mixed", Input{Sentiment: "MIXED", Confidence: 0.5, Text: "good and bad"}, "Your feelings seem mixed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := engine.Recommend(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Contains(t, rec.Message, tt.prefix)
			assert.Len(t, rec.Tips, 4)
		})
	}
}

func TestNewEngineRejectsBrokenPolicy(t *testing.T) {
	_, err := NewEngine(context.Background(), "package recommendation\nresult := {")
	require.Error(t, err)
}
