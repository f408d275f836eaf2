package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

// Fetch limits.
const (
	MaxPageBytes = 2 << 20
	MaxPageChars = 8000
)

// Fetcher downloads pages and converts them to markdown.
type Fetcher struct {
	client    *http.Client
	converter *Converter
	userAgent string
}

// NewFetcher creates a Fetcher. A nil client gets a 20s timeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Fetcher{
		client:    client,
		converter: NewConverter(),
		userAgent: "cinebrain/1.0 (+https://github.com/whitehatjr1001/cine-brain)",
	}
}

// Fetch retrieves rawURL and returns its main content as markdown,
// truncated to MaxPageChars.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Page{}, fmt.Errorf("fetch: invalid url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Page{}, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain")

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, &domain.TransientError{Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("fetch %s: status %d", u, resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return Page{}, &domain.TransientError{Op: "fetch", Err: err}
		}
		return Page{}, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxPageBytes))
	if err != nil {
		return Page{}, fmt.Errorf("fetch %s: %w", u, err)
	}

	var page Page
	ctype := resp.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(ctype, "text/plain"):
		page = Page{Markdown: strings.TrimSpace(string(body))}
	case ctype == "" || strings.Contains(ctype, "html"):
		page, err = f.converter.Convert(body)
		if err != nil {
			return Page{}, fmt.Errorf("fetch %s: %w", u, err)
		}
	default:
		return Page{}, fmt.Errorf("fetch %s: unsupported content type %q", u, ctype)
	}

	page.URL = u.String()
	if r := []rune(page.Markdown); len(r) > MaxPageChars {
		page.Markdown = string(r[:MaxPageChars]) + "\n\n[truncated]"
	}
	return page, nil
}
