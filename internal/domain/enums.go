// Package domain defines the core domain models for moodlog.
package domain

import "strings"

// Sentiment is the label assigned to a journal entry by the classifier.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
	SentimentMixed    Sentiment = "MIXED"
)

// Sentiments lists the closed set of labels the ledger accepts.
var Sentiments = []Sentiment{SentimentPositive, SentimentNegative, SentimentNeutral, SentimentMixed}

// Valid reports whether s is one of the closed set.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral, SentimentMixed:
		return true
	}
	return false
}

// ParseSentiment normalises an engine label. The second result is false for
// labels outside the closed set.
func ParseSentiment(raw string) (Sentiment, bool) {
	s := Sentiment(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// MoodBucket is one of the three counters kept on a session.
type MoodBucket string

const (
	MoodPositive MoodBucket = "positive"
	MoodNegative MoodBucket = "negative"
	MoodNeutral  MoodBucket = "neutral"
)

// BucketOf maps a sentiment to its session counter. Everything that is not
// POSITIVE or NEGATIVE lands in neutral.
func BucketOf(s Sentiment) MoodBucket {
	switch s {
	case SentimentPositive:
		return MoodPositive
	case SentimentNegative:
		return MoodNegative
	default:
		return MoodNeutral
	}
}
