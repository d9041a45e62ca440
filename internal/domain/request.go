package domain

// AnalyzeRequest is the body of POST /v1/analyze.
type AnalyzeRequest struct {
	Text string `json:"text"`
}

// AnalyzeResponse is returned for a successful analysis.
type AnalyzeResponse struct {
	Sentiment        Sentiment `json:"sentiment"`
	ConfidenceScore  float64   `json:"confidenceScore"`
	Recommendation   string    `json:"recommendation"`
	AdditionalTips   []string  `json:"additionalTips"`
	ProcessingTimeMs int64     `json:"processingTimeMs"`
	ConversationID   string    `json:"conversationId,omitempty"`
	SessionToken     string    `json:"sessionToken"`
	SessionCreated   bool      `json:"sessionCreated"`
	Status           string    `json:"status"`
}

// HistoryResponse is returned by GET /v1/history.
type HistoryResponse struct {
	HistoryPage
	SessionToken string `json:"sessionToken"`
}

// AnalyticsResponse is returned by GET /v1/analytics.
type AnalyticsResponse struct {
	Analytics
	SessionToken string `json:"sessionToken"`
}

// FeedbackRequest is the body of POST /v1/conversations/:conversation_id/feedback.
type FeedbackRequest struct {
	Helpful *bool `json:"helpful,omitempty"`
	Rating  *int  `json:"rating,omitempty"`
}

// FeedbackResponse acknowledges stored feedback.
type FeedbackResponse struct {
	ConversationID string `json:"conversationId"`
	Status         string `json:"status"`
}

// ErrorResponse is the envelope for every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Status    string `json:"status"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
}
