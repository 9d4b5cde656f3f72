// Package answer wraps the Exa answer API: one natural-language question in,
// one natural-language answer plus optional source citations out.
package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ridesg/internal/domain"
)

const defaultBaseURL = "https://api.exa.ai"

// Source is a citation attached to an answer.
type Source struct {
	ID      string  `json:"id"`
	Title   string  `json:"title,omitempty"`
	URL     string  `json:"url,omitempty"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Answer is the validated response envelope.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources,omitempty"`
}

// Client is an Exa answer API client.
type Client struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger
}

// NewClient creates an Exa client. baseURL is overridable for tests.
func NewClient(apiKey, baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// IsConfigured reports whether an API key is set. Callers degrade to mock
// data when it is not, so a missing key is a warning, not an error.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

type answerRequest struct {
	Query         string `json:"query"`
	NumSources    int    `json:"num_sources"`
	UseAutoprompt bool   `json:"use_autoprompt"`
}

// Ask sends the query and returns the validated answer envelope. Non-2xx
// responses become a typed UpstreamError that fails only the semantic branch
// of a search.
func (c *Client) Ask(ctx context.Context, query string, numSources int) (*Answer, error) {
	if numSources <= 0 {
		numSources = 5
	}

	payload, err := json.Marshal(answerRequest{
		Query:         query,
		NumSources:    numSources,
		UseAutoprompt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal answer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/answer", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create answer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("answer request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read answer response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("exa answer request failed",
			"status", resp.StatusCode,
			"body", truncate(string(body), 500),
		)
		return nil, &domain.UpstreamError{
			Provider: "exa",
			Status:   resp.StatusCode,
			Body:     truncate(string(body), 500),
		}
	}

	var ans Answer
	if err := json.Unmarshal(body, &ans); err != nil {
		c.logger.Error("exa answer parse failed", "error", err)
		return nil, fmt.Errorf("unmarshal answer response: %w", err)
	}

	if strings.TrimSpace(ans.Answer) == "" {
		return nil, fmt.Errorf("answer response missing answer text")
	}

	return &ans, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
