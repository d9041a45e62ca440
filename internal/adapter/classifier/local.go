package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
	"github.com/xiaot623/gogo/moodlog/policy"
)

var positiveWords = map[string]bool{
	"amazing": true, "awesome": true, "better": true, "calm": true, "cheerful": true,
	"content": true, "excited": true, "fantastic": true, "glad": true, "good": true,
	"grateful": true, "great": true, "happy": true, "hopeful": true, "joy": true,
	"love": true, "peaceful": true, "proud": true, "relaxed": true, "wonderful": true,
}

var negativeWords = map[string]bool{
	"afraid": true, "angry": true, "anxiety": true, "anxious": true, "awful": true,
	"bad": true, "depressed": true, "down": true, "exhausted": true, "frustrated": true,
	"hate": true, "hopeless": true, "hurt": true, "irritated": true, "lonely": true,
	"mad": true, "miserable": true, "sad": true, "scared": true, "stress": true,
	"stressed": true, "terrible": true, "tired": true, "upset": true, "worried": true,
}

// LocalClient is an in-process lexicon classifier for development and
// offline use. Recommendations come from the Rego policy.
type LocalClient struct {
	policy *policy.Engine
}

// NewLocalClient creates a local classifier backed by the given policy engine.
func NewLocalClient(engine *policy.Engine) *LocalClient {
	return &LocalClient{policy: engine}
}

// Classify scores text by counting lexicon hits.
func (l *LocalClient) Classify(ctx context.Context, text string, timeout time.Duration) (*domain.Classification, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, transportError(err)
	}

	lower := strings.ToLower(text)
	sentiment, confidence := score(lower)

	rec, err := l.policy.Recommend(ctx, policy.Input{
		Sentiment:  string(sentiment),
		Confidence: confidence,
		Text:       lower,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, transportError(ctxErr)
		}
		return nil, &domain.ClassifierError{
			Kind:    domain.ErrClassifierUpstream,
			Message: "recommendation policy failed",
			Err:     err,
		}
	}

	tips := rec.Tips
	if tips == nil {
		tips = []string{}
	}
	return &domain.Classification{
		Sentiment:       sentiment,
		ConfidenceScore: confidence,
		Recommendation:  rec.Message,
		AdditionalTips:  tips,
	}, nil
}

// Health always succeeds; the engine lives in-process.
func (l *LocalClient) Health(ctx context.Context) error {
	if l.policy == nil {
		return fmt.Errorf("local classifier has no policy engine")
	}
	return nil
}

// score returns the label and a confidence in [0.5, 0.99].
func score(lower string) (domain.Sentiment, float64) {
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	var pos, neg int
	for _, w := range words {
		switch {
		case positiveWords[w]:
			pos++
		case negativeWords[w]:
			neg++
		}
	}

	total := pos + neg
	switch {
	case total == 0:
		return domain.SentimentNeutral, 0.5
	case pos == neg:
		return domain.SentimentMixed, 0.5
	}

	diff := pos - neg
	label := domain.SentimentPositive
	if diff < 0 {
		diff = -diff
		label = domain.SentimentNegative
	}
	confidence := 0.6 + 0.39*float64(diff)/float64(total)
	return label, confidence
}
