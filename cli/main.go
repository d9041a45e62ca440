// Package main provides a small terminal client for the moodlog HTTP API.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
	"github.com/xiaot623/gogo/moodlog/internal/session"
)

// Client talks to a moodlog server and remembers the session token it was
// given.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// NewClient creates a new client. token may be empty.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      token,
	}
}

// do sends one request, stores a newly minted token and decodes the response
// into out. Error envelopes come back as Go errors.
func (c *Client) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(session.HeaderName, c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if minted := resp.Header.Get(session.HeaderName); minted != "" {
		c.token = minted
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var envelope domain.ErrorResponse
		if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error != "" {
			return fmt.Errorf("%s (%s, HTTP %d)", envelope.Error, envelope.Code, resp.StatusCode)
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// Analyze submits a journal entry.
func (c *Client) Analyze(text string) (*domain.AnalyzeResponse, error) {
	var resp domain.AnalyzeResponse
	if err := c.do(http.MethodPost, "/v1/analyze", domain.AnalyzeRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History fetches one page of past entries.
func (c *Client) History(page int) (*domain.HistoryResponse, error) {
	q := url.Values{"page": {strconv.Itoa(page)}}
	var resp domain.HistoryResponse
	if err := c.do(http.MethodGet, "/v1/history?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Analytics fetches the mood summary for the last days.
func (c *Client) Analytics(days int) (*domain.AnalyticsResponse, error) {
	q := url.Values{"days": {strconv.Itoa(days)}}
	var resp domain.AnalyticsResponse
	if err := c.do(http.MethodGet, "/v1/analytics?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Rate stores a rating for a conversation.
func (c *Client) Rate(conversationID string, rating int) error {
	return c.do(http.MethodPost, "/v1/conversations/"+url.PathEscape(conversationID)+"/feedback",
		domain.FeedbackRequest{Rating: &rating}, nil)
}

func printJSON(v any) {
	formatted, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(formatted))
}

// intArg parses the optional numeric argument of a command.
func intArg(fields []string, i, def int) (int, error) {
	if len(fields) <= i {
		return def, nil
	}
	return strconv.Atoi(fields[i])
}

func handleCommand(client *Client, fields []string, lastConversation string) {
	switch fields[0] {
	case "/history":
		page, err := intArg(fields, 1, 1)
		if err != nil {
			log.Printf("Usage: /history [page]")
			return
		}
		resp, err := client.History(page)
		if err != nil {
			log.Printf("History error: %v", err)
			return
		}
		for _, c := range resp.Data {
			fmt.Printf("%s  %-8s %.2f  %s\n", c.CreatedAt.Local().Format(time.DateTime), c.Sentiment, c.ConfidenceScore, c.Text)
		}
		fmt.Printf("page %d/%d (%d entries)\n", resp.Pagination.Page, resp.Pagination.Pages, resp.Pagination.Total)
	case "/analytics":
		days, err := intArg(fields, 1, 30)
		if err != nil {
			log.Printf("Usage: /analytics [days]")
			return
		}
		resp, err := client.Analytics(days)
		if err != nil {
			log.Printf("Analytics error: %v", err)
			return
		}
		printJSON(resp)
	case "/rate":
		rating, err := intArg(fields, 1, 0)
		if err != nil || len(fields) < 2 {
			log.Printf("Usage: /rate <1-5>")
			return
		}
		if lastConversation == "" {
			log.Printf("Nothing to rate yet")
			return
		}
		if err := client.Rate(lastConversation, rating); err != nil {
			log.Printf("Rate error: %v", err)
			return
		}
		fmt.Println("Thanks for the feedback.")
	default:
		fmt.Println("Commands: /history [page], /analytics [days], /rate <1-5>, /quit")
	}
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "moodlog server address")
	token := flag.String("token", os.Getenv("MOODLOG_SESSION_TOKEN"), "session token to resume")
	flag.Parse()

	log.SetFlags(log.Ltime)

	client := NewClient(*addr, *token)

	fmt.Printf("Connected to %s\n", *addr)
	fmt.Println("\nWrite how you feel and press Enter.")
	fmt.Println("Commands: /history [page], /analytics [days], /rate <1-5>, /quit")
	fmt.Println()

	// Handle Ctrl+C
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		fmt.Println("\nInterrupted")
		if client.token != "" {
			fmt.Printf("Session token: %s\n", client.token)
		}
		os.Exit(0)
	}()

	// Read user input
	scanner := bufio.NewScanner(os.Stdin)
	var lastConversation string

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if input == "/quit" {
			if client.token != "" {
				fmt.Printf("Session token: %s\n", client.token)
			}
			fmt.Println("Bye!")
			return
		}

		if strings.HasPrefix(input, "/") {
			handleCommand(client, strings.Fields(input), lastConversation)
			continue
		}

		resp, err := client.Analyze(input)
		if err != nil {
			log.Printf("Analyze error: %v", err)
			continue
		}
		if resp.SessionCreated {
			fmt.Printf("New session: %s\n", resp.SessionToken)
		}
		lastConversation = resp.ConversationID
		fmt.Printf("\n[%s %.0f%%] %s\n", resp.Sentiment, resp.ConfidenceScore*100, resp.Recommendation)
		for _, tip := range resp.AdditionalTips {
			fmt.Printf("  - %s\n", tip)
		}
		fmt.Println()
	}
}
