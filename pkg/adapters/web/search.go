// Package web provides web search and page fetching for the research team.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/whitehatjr1001/cine-brain/internal/logging"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

// DefaultEndpoint is the Serper search API.
const DefaultEndpoint = "https://google.serper.dev/search"

// DefaultResults is the number of organic results requested per query.
const DefaultResults = 5

// ErrNoAPIKey is returned when searching without credentials.
var ErrNoAPIKey = errors.New("serper api key is not configured")

// Result is one organic search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Searcher queries the Serper Google search API.
type Searcher struct {
	apiKey   string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// SearchOption configures the Searcher.
type SearchOption func(*Searcher)

// WithEndpoint overrides the API URL.
func WithEndpoint(url string) SearchOption {
	return func(s *Searcher) {
		if url != "" {
			s.endpoint = url
		}
	}
}

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) SearchOption {
	return func(s *Searcher) {
		if c != nil {
			s.client = c
		}
	}
}

// WithSearchLogger sets a custom structured logger.
func WithSearchLogger(logger *slog.Logger) SearchOption {
	return func(s *Searcher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSearcher creates a Serper client.
func NewSearcher(apiKey string, opts ...SearchOption) *Searcher {
	s := &Searcher{
		apiKey:   apiKey,
		endpoint: DefaultEndpoint,
		client:   &http.Client{Timeout: 20 * time.Second},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns up to n organic results for query.
func (s *Searcher) Search(ctx context.Context, query string, n int) ([]Result, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("%w: %w", ErrNoAPIKey, domain.ErrCapabilityUnavailable)
	}
	if n <= 0 {
		n = DefaultResults
	}

	body, err := json.Marshal(map[string]any{"q": query, "num": n})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &domain.TransientError{Op: "search", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("search: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, &domain.TransientError{Op: "search", Err: err}
		}
		return nil, err
	}

	var payload struct {
		Organic []Result `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("search: failed to decode response: %w", err)
	}
	if len(payload.Organic) > n {
		payload.Organic = payload.Organic[:n]
	}
	s.logger.Debug("search", "query", query, "results", len(payload.Organic), "duration", time.Since(start))
	return payload.Organic, nil
}

// Format renders results as a numbered markdown list.
func Format(results []Result) string {
	if len(results) == 0 {
		return "No results found."
	}
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. [%s](%s)\n", i+1, r.Title, r.Link)
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "   %s\n", r.Snippet)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
