// Package classifier provides clients for the sentiment-analysis engine.
package classifier

import (
	"context"
	"time"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
)

// Classifier maps text to a sentiment, a confidence score and a
// recommendation. Implementations never persist anything.
type Classifier interface {
	// Classify sends exactly one request; timeout bounds the whole call.
	// Text is trusted to be trimmed and within bounds.
	Classify(ctx context.Context, text string, timeout time.Duration) (*domain.Classification, error)

	// Health reports whether the engine is reachable.
	Health(ctx context.Context) error
}

// Ensure implementations satisfy Classifier.
var (
	_ Classifier = (*Client)(nil)
	_ Classifier = (*LocalClient)(nil)
)
