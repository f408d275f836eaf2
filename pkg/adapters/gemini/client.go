// Package gemini implements the generation and media capabilities on the
// Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/whitehatjr1001/cine-brain/internal/logging"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
	"google.golang.org/genai"
)

// Model defaults.
const (
	DefaultModel       = "gemini-2.0-flash"
	DefaultVideoModel  = "veo-2.0-generate-001"
	DefaultSpeechModel = "gemini-2.5-flash-preview-tts"
	DefaultVoice       = "Kore"
	DefaultOutputDir   = ".cinebrain/media"
)

// Config selects models and credentials.
type Config struct {
	APIKey      string
	Model       string
	VideoModel  string
	SpeechModel string
	Voice       string
	OutputDir   string
	// BaseURL overrides the API endpoint.
	BaseURL    string
	HTTPClient *http.Client
}

func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.VideoModel == "" {
		c.VideoModel = DefaultVideoModel
	}
	if c.SpeechModel == "" {
		c.SpeechModel = DefaultSpeechModel
	}
	if c.Voice == "" {
		c.Voice = DefaultVoice
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
}

// Client wraps a genai client. It implements ports.Generator and ports.MediaGenerator.
type Client struct {
	client *genai.Client
	cfg    Config
	poll   time.Duration
	logger *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithPollInterval sets how often long-running video operations are polled.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.poll = d
		}
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the Gemini API.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key is required: %w", domain.ErrCapabilityUnavailable)
	}
	cfg.defaults()

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	c := &Client{client: client, cfg: cfg, poll: 10 * time.Second, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Generate sends a single-turn prompt. Requests carrying a schema switch the
// model to JSON output; the schema itself is validated by the caller.
func (c *Client) Generate(ctx context.Context, req ports.GenerateRequest) (*ports.Generation, error) {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != "" {
		config.ResponseMIMEType = "application/json"
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(req.Prompt), config)
	if err != nil {
		return nil, classify("generate "+req.Purpose, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("generate %s: empty response", req.Purpose)
	}
	c.logger.Debug("generated", "purpose", req.Purpose, "model", c.cfg.Model, "duration", time.Since(start))
	return &ports.Generation{Text: text, Model: c.cfg.Model}, nil
}

// classify marks rate limits and server errors as transient.
func classify(op string, err error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	if code == http.StatusTooManyRequests || code >= 500 {
		return &domain.TransientError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
