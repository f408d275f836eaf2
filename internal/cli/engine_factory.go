package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/whitehatjr1001/cine-brain"
	"github.com/whitehatjr1001/cine-brain/internal/logging"
	"github.com/whitehatjr1001/cine-brain/pkg/observability"
)

// Options carries the flags shared by the CLI commands.
type Options struct {
	ConfigPath string
	SessionID  string
	JSON       bool
	Debug      bool
	AutoAccept bool
	Fresh      bool
	// Store overrides the configured checkpoint backend when set.
	Store string
}

// LoadConfig reads the configuration and applies flag overrides.
func LoadConfig(opts Options) (cinebrain.Config, error) {
	cfg, err := cinebrain.LoadConfig(opts.ConfigPath)
	if err != nil {
		return cfg, fmt.Errorf("error loading config: %w", err)
	}
	if opts.Store != "" {
		cfg.Store.Backend = opts.Store
	}
	if opts.Debug {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// NewEngine builds an engine with CLI conventions: logs on stderr at the
// configured level, and a metrics registry the serve command can expose.
func NewEngine(ctx context.Context, opts Options, extra ...cinebrain.Option) (*cinebrain.Engine, *slog.Logger, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	logger, err := createLogger(cfg.LogLevel, opts.JSON)
	if err != nil {
		return nil, nil, err
	}

	engineOpts := append([]cinebrain.Option{
		cinebrain.WithLogger(logger),
		cinebrain.WithMetrics(observability.NewMetrics()),
	}, extra...)
	engine, err := cinebrain.New(ctx, cfg, engineOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing engine: %w", err)
	}

	if opts.Fresh && opts.SessionID != "" {
		if err := engine.Delete(ctx, opts.SessionID); err != nil {
			logger.Warn("failed to reset session", "session_id", opts.SessionID, "error", err)
		}
	}
	return engine, logger, nil
}

// createLogger logs to stderr so stdout stays reserved for conversation
// output and JSON lines.
func createLogger(level string, jsonMode bool) (*slog.Logger, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(stderr, lvl, jsonMode), nil
}
