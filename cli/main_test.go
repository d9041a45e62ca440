package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
	"github.com/xiaot623/gogo/moodlog/internal/session"
)

func TestClientRemembersMintedToken(t *testing.T) {
	const minted = "3f1c2b7e-9a4d-4e1f-8c55-2b9d0f6a7e31"
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get(session.HeaderName))
		if r.Header.Get(session.HeaderName) == "" {
			w.Header().Set(session.HeaderName, minted)
		}
		_ = json.NewEncoder(w).Encode(domain.AnalyzeResponse{Sentiment: domain.SentimentNeutral, Status: "success", SessionToken: minted})
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "")
	_, err := client.Analyze("hello")
	require.NoError(t, err)
	_, err = client.Analyze("again")
	require.NoError(t, err)

	assert.Equal(t, []string{"", minted}, seen)
	assert.Equal(t, minted, client.token)
}

func TestClientReturnsErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(domain.ErrorResponse{Error: "engine down", Status: "error", Code: domain.CodeClassifierUnavailable, Retryable: true})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Analyze("hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine down")
	assert.Contains(t, err.Error(), domain.CodeClassifierUnavailable)
}
