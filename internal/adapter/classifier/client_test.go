package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
)

func TestClientClassify(t *testing.T) {
	var got PredictRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"sentiment":"POSITIVE","confidence_score":0.92,"recommendation":"keep going","additional_tips":["walk","call a friend"],"status":"success"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")
	result, err := client.Classify(context.Background(), "I feel great today", time.Second)
	require.NoError(t, err)

	assert.Equal(t, "I feel great today", got.Text)
	assert.Equal(t, domain.SentimentPositive, result.Sentiment)
	assert.InDelta(t, 0.92, result.ConfidenceScore, 1e-9)
	assert.Equal(t, "keep going", result.Recommendation)
	assert.Equal(t, []string{"walk", "call a friend"}, result.AdditionalTips)
}

func TestClientClassifyNormalisesLabelAndTips(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"sentiment":"negative","confidence_score":0,"recommendation":"rest"}`)
	}))
	defer server.Close()

	result, err := NewClient(server.URL).Classify(context.Background(), "meh", time.Second)
	require.NoError(t, err)
	assert.Equal(t, domain.SentimentNegative, result.Sentiment)
	assert.Equal(t, 0.0, result.ConfidenceScore)
	assert.NotNil(t, result.AdditionalTips)
	assert.Empty(t, result.AdditionalTips)
}

func TestClientClassifyErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		kind       error
		wantStatus int
		wantMsg    string
	}{
		{"client rejection", http.StatusBadRequest, `{"error":"Text too long","status":"error"}`, domain.ErrClassifierRejected, http.StatusBadRequest, "Text too long"},
		{"engine failure", http.StatusInternalServerError, `{"error":"model not available","status":"error"}`, domain.ErrClassifierUpstream, http.StatusInternalServerError, "model not available"},
		{"bad gateway", http.StatusBadGateway, ``, domain.ErrClassifierUpstream, http.StatusBadGateway, "Bad Gateway"},
		{"malformed json", http.StatusOK, `not json`, domain.ErrClassifierUpstream, 0, "malformed response"},
		{"unknown label", http.StatusOK, `{"sentiment":"EXCITED","confidence_score":0.5}`, domain.ErrClassifierUpstream, 0, "unknown sentiment label"},
		{"score out of range", http.StatusOK, `{"sentiment":"POSITIVE","confidence_score":1.5}`, domain.ErrClassifierUpstream, 0, "outside [0,1]"},
		{"missing score", http.StatusOK, `{"sentiment":"POSITIVE"}`, domain.ErrClassifierUpstream, 0, "missing confidence_score"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := NewClient(server.URL).Classify(context.Background(), "hello", time.Second)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)

			var ce *domain.ClassifierError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.wantStatus, ce.StatusCode)
			assert.Contains(t, ce.Error(), tt.wantMsg)
		})
	}
}

func TestClientClassifyTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	_, err := NewClient(server.URL).Classify(context.Background(), "hello", 50*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrClassifierTimeout), "got %v", err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, domain.CodeClassifierTimeout, domain.ErrorCode(err))
}

func TestClientClassifyUnavailable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = NewClient("http://"+addr).Classify(context.Background(), "hello", time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrClassifierUnavailable), "got %v", err)
	assert.Equal(t, domain.CodeClassifierUnavailable, domain.ErrorCode(err))
}

func TestClientClassifyCallerCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewClient(server.URL).Classify(ctx, "hello", 5*time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestClientHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"status":"running"}`)
	}))
	defer server.Close()

	require.NoError(t, NewClient(server.URL).Health(context.Background()))
}

func TestClientHealthUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	err := NewClient(url).Health(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrClassifierUnavailable), "got %v", err)
}
