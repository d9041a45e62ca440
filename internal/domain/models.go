package domain

import "time"

// ClientMetadata is the anonymized description of the caller.
type ClientMetadata struct {
	UserAgent  string `json:"userAgent,omitempty"`
	OriginHash string `json:"originHash,omitempty"`
}

// Feedback is the optional user verdict on a recommendation.
type Feedback struct {
	Helpful *bool `json:"helpful,omitempty"`
	Rating  *int  `json:"rating,omitempty"`
}

// Empty reports whether no feedback field is set.
func (f Feedback) Empty() bool {
	return f.Helpful == nil && f.Rating == nil
}

// Classification is what the sentiment engine returns for one text.
type Classification struct {
	Sentiment       Sentiment `json:"sentiment"`
	ConfidenceScore float64   `json:"confidenceScore"`
	Recommendation  string    `json:"recommendation"`
	AdditionalTips  []string  `json:"additionalTips"`
}

// Conversation is one analyzed journal entry in the ledger.
type Conversation struct {
	ID               string         `json:"id"`
	SessionToken     string         `json:"sessionToken"`
	Text             string         `json:"text"`
	Sentiment        Sentiment      `json:"sentiment"`
	ConfidenceScore  float64        `json:"confidenceScore"`
	Recommendation   string         `json:"recommendation"`
	AdditionalTips   []string       `json:"additionalTips"`
	ProcessingTimeMs int64          `json:"processingTimeMs"`
	Client           ClientMetadata `json:"clientMetadata"`
	Feedback         Feedback       `json:"feedback"`
	CreatedAt        time.Time      `json:"timestamp"`
}

// ConversationInput is what a caller hands to the ledger.
type ConversationInput struct {
	SessionToken     string
	Text             string
	Classification   Classification
	ProcessingTimeMs int64
	Client           ClientMetadata
}

// MoodTrend holds the three per-session sentiment counters.
type MoodTrend struct {
	Positive int64 `json:"positive"`
	Negative int64 `json:"negative"`
	Neutral  int64 `json:"neutral"`
}

// Total is the sum of all buckets.
func (m MoodTrend) Total() int64 {
	return m.Positive + m.Negative + m.Neutral
}

// Session is the rolling summary kept per session token.
type Session struct {
	Token                 string         `json:"sessionToken"`
	ConversationCount     int64          `json:"conversationCount"`
	TotalProcessingTimeMs int64          `json:"totalProcessingTimeMs"`
	MoodTrend             MoodTrend      `json:"moodTrend"`
	FirstInteraction      time.Time      `json:"firstInteraction"`
	LastInteraction       time.Time      `json:"lastInteraction"`
	IsActive              bool           `json:"isActive"`
	Client                ClientMetadata `json:"clientMetadata"`
}

// SessionUpdate is the event applied to a session for one analysis.
type SessionUpdate struct {
	Token            string
	Sentiment        Sentiment
	ProcessingTimeMs int64
	Client           ClientMetadata
	At               time.Time
}

// SessionStats is the public projection of a session used by analytics.
type SessionStats struct {
	TotalConversations      int64     `json:"totalConversations"`
	AverageProcessingTimeMs float64   `json:"averageProcessingTimeMs"`
	MoodTrend               MoodTrend `json:"moodTrend"`
	FirstInteraction        time.Time `json:"firstInteraction"`
	LastInteraction         time.Time `json:"lastInteraction"`
}

// SentimentStat is one group of a sentiment breakdown.
type SentimentStat struct {
	Count         int64   `json:"count"`
	AvgConfidence float64 `json:"avgConfidence"`
}

// TrendPoint is a conversation reduced to what trend charts need.
type TrendPoint struct {
	Sentiment       Sentiment `json:"sentiment"`
	ConfidenceScore float64   `json:"confidenceScore"`
	Timestamp       time.Time `json:"timestamp"`
}

// LedgerSummary is the ledger-side view of one session, used for repair.
type LedgerSummary struct {
	Counts                map[Sentiment]int64
	TotalProcessingTimeMs int64
	First                 time.Time
	Last                  time.Time
	LatestClient          ClientMetadata
}

// Period describes the window an analytics answer covers.
type Period struct {
	Days  int       `json:"days"`
	Since time.Time `json:"since"`
	Until time.Time `json:"until"`
}

// Analytics is the answer of the analytics query engine.
type Analytics struct {
	SentimentBreakdown map[Sentiment]SentimentStat `json:"sentimentBreakdown"`
	RecentTrends       []TrendPoint                `json:"recentTrends"`
	SessionStats       *SessionStats               `json:"sessionStats"`
	Period             Period                      `json:"period"`
}

// Pagination describes one page of history.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int64 `json:"pages"`
}

// HistoryPage is one page of a session's conversations.
type HistoryPage struct {
	Data       []Conversation `json:"data"`
	Pagination Pagination     `json:"pagination"`
}
