package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
)

const (
	maxResponseBytes = 1 << 20
	healthTimeout    = 3 * time.Second
)

// Client is the HTTP client of the remote sentiment engine.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new engine client. Timeouts are applied per call.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// PredictRequest is the body sent to POST /predict.
type PredictRequest struct {
	Text string `json:"text"`
}

// PredictResponse is the body returned by the engine, on success or failure.
type PredictResponse struct {
	Sentiment       string   `json:"sentiment"`
	ConfidenceScore *float64 `json:"confidence_score"`
	Recommendation  string   `json:"recommendation"`
	AdditionalTips  []string `json:"additional_tips,omitempty"`
	Error           string   `json:"error,omitempty"`
	Status          string   `json:"status,omitempty"`
}

// Classify calls POST /predict once. No retries.
func (c *Client) Classify(ctx context.Context, text string, timeout time.Duration) (*domain.Classification, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	body, err := json.Marshal(PredictRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(err)
	}

	var payload PredictResponse
	decodeErr := json.Unmarshal(raw, &payload)

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, &domain.ClassifierError{
			Kind:       domain.ErrClassifierRejected,
			StatusCode: resp.StatusCode,
			Message:    engineMessage(payload, raw, resp.StatusCode),
		}
	case resp.StatusCode >= 500:
		return nil, &domain.ClassifierError{
			Kind:       domain.ErrClassifierUpstream,
			StatusCode: resp.StatusCode,
			Message:    engineMessage(payload, raw, resp.StatusCode),
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &domain.ClassifierError{
			Kind:    domain.ErrClassifierUpstream,
			Message: fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}

	if decodeErr != nil {
		return nil, &domain.ClassifierError{
			Kind:    domain.ErrClassifierUpstream,
			Message: "malformed response",
			Err:     decodeErr,
		}
	}
	return toClassification(payload)
}

// Health calls GET / on the engine.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode != http.StatusOK {
		return &domain.ClassifierError{Kind: domain.ErrClassifierUpstream, StatusCode: resp.StatusCode}
	}
	return nil
}

func toClassification(p PredictResponse) (*domain.Classification, error) {
	sentiment, ok := domain.ParseSentiment(p.Sentiment)
	if !ok {
		return nil, &domain.ClassifierError{
			Kind:    domain.ErrClassifierUpstream,
			Message: fmt.Sprintf("unknown sentiment label %q", p.Sentiment),
		}
	}
	if p.ConfidenceScore == nil {
		return nil, &domain.ClassifierError{
			Kind:    domain.ErrClassifierUpstream,
			Message: "missing confidence_score",
		}
	}
	score := *p.ConfidenceScore
	if math.IsNaN(score) || score < 0 || score > 1 {
		return nil, &domain.ClassifierError{
			Kind:    domain.ErrClassifierUpstream,
			Message: fmt.Sprintf("confidence_score %v outside [0,1]", score),
		}
	}

	tips := p.AdditionalTips
	if tips == nil {
		tips = []string{}
	}
	return &domain.Classification{
		Sentiment:       sentiment,
		ConfidenceScore: score,
		Recommendation:  p.Recommendation,
		AdditionalTips:  tips,
	}, nil
}

func engineMessage(p PredictResponse, raw []byte, status int) string {
	if p.Error != "" {
		return p.Error
	}
	if s := strings.TrimSpace(string(raw)); s != "" && len(s) <= 200 {
		return s
	}
	return http.StatusText(status)
}

// transportError classifies a failed round trip.
func transportError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("classifier call abandoned: %w", err)
	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		return &domain.ClassifierError{Kind: domain.ErrClassifierTimeout, Err: err}
	case isUnreachable(err):
		return &domain.ClassifierError{Kind: domain.ErrClassifierUnavailable, Err: err}
	default:
		return &domain.ClassifierError{Kind: domain.ErrClassifierUpstream, Err: err}
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isUnreachable(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
