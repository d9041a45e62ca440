package domain

// Add returns the trend with the bucket for s incremented.
func (m MoodTrend) Add(s Sentiment) MoodTrend {
	switch BucketOf(s) {
	case MoodPositive:
		m.Positive++
	case MoodNegative:
		m.Negative++
	default:
		m.Neutral++
	}
	return m
}

// Apply returns the session that results from recording u on s.
// The receiver is not modified.
func (s Session) Apply(u SessionUpdate) Session {
	next := s
	next.Token = u.Token
	if next.ConversationCount == 0 && next.FirstInteraction.IsZero() {
		next.FirstInteraction = u.At
	}
	next.ConversationCount++
	next.TotalProcessingTimeMs += u.ProcessingTimeMs
	next.MoodTrend = next.MoodTrend.Add(u.Sentiment)
	next.LastInteraction = u.At
	next.IsActive = true
	next.Client = u.Client
	return next
}

// Delta is the session a brand new token gets from u. SQL stores insert it
// as-is or add its counters to an existing row.
func Delta(u SessionUpdate) Session {
	return Session{}.Apply(u)
}

// Consistent reports whether the conversation count matches the trend buckets.
func (s Session) Consistent() bool {
	return s.ConversationCount == s.MoodTrend.Total()
}

// Stats projects the session for analytics.
func (s Session) Stats() SessionStats {
	stats := SessionStats{
		TotalConversations: s.ConversationCount,
		MoodTrend:          s.MoodTrend,
		FirstInteraction:   s.FirstInteraction,
		LastInteraction:    s.LastInteraction,
	}
	if s.ConversationCount > 0 {
		stats.AverageProcessingTimeMs = float64(s.TotalProcessingTimeMs) / float64(s.ConversationCount)
	}
	return stats
}

// RebuildSession recomputes a session from the ledger. current may be nil when
// the ledger holds conversations for a token that never got a session row.
func RebuildSession(token string, current *Session, sum LedgerSummary) Session {
	var next Session
	if current != nil {
		next = *current
	}
	next.Token = token
	next.MoodTrend = MoodTrend{}
	for sentiment, n := range sum.Counts {
		switch BucketOf(sentiment) {
		case MoodPositive:
			next.MoodTrend.Positive += n
		case MoodNegative:
			next.MoodTrend.Negative += n
		default:
			next.MoodTrend.Neutral += n
		}
	}
	next.ConversationCount = next.MoodTrend.Total()
	next.TotalProcessingTimeMs = sum.TotalProcessingTimeMs

	if next.FirstInteraction.IsZero() || (!sum.First.IsZero() && sum.First.Before(next.FirstInteraction)) {
		next.FirstInteraction = sum.First
	}
	if sum.Last.After(next.LastInteraction) {
		next.LastInteraction = sum.Last
	}
	if current == nil {
		next.Client = sum.LatestClient
	}
	next.IsActive = true
	return next
}
