package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/whitehatjr1001/cine-brain/internal/logging"
)

// Chat commands understood by the loop.
const (
	CommandExit    = "/exit"
	CommandQuit    = "/quit"
	CommandNew     = "/new"
	CommandSession = "/session"
)

// Runner drives an interactive conversation: read a message, send it to the
// engine, present the outcome, repeat until EOF or an exit command.
type Runner struct {
	// Handler is the IO strategy. Defaults to a TextHandler on Stdin/Stdout.
	Handler IOHandler

	Logger      *slog.Logger
	SessionID   string
	Middleware  []Middleware
	TurnTimeout time.Duration
	Signals     bool

	engine   Engine
	sessions *SessionManager
}

// NewRunner creates a runner for engine.
func NewRunner(engine Engine, opts ...Option) *Runner {
	r := &Runner{
		Logger:   logging.NewNop(),
		Signals:  true,
		engine:   engine,
		sessions: NewSessionManager(engine),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r
}

// Run executes the chat loop until the input ends, an exit command is read or
// ctx is cancelled. A signal during a turn interrupts that turn only; a signal
// while waiting for input ends the loop.
func (r *Runner) Run(ctx context.Context) error {
	sessionID, last, err := r.sessions.Attach(ctx, r.SessionID)
	if err != nil {
		return err
	}
	r.SessionID = sessionID
	if last != nil {
		r.Logger.Info("session resumed", "session_id", sessionID, "status", last.Status)
		if err := r.Handler.Output(ctx, last); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}

	signals := r.signals(ctx)
	defer signals.Stop()

	turn := Chain(r.engine.Send, append([]Middleware{
		LoggingMiddleware(r.Logger),
		TimeoutMiddleware(r.TurnTimeout),
	}, r.Middleware...)...)

	for {
		input, err := r.Handler.Input(signals.Context())
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			signals.Settle()
			if signals.Context().Err() != nil {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(input)) {
		case "":
			continue
		case CommandExit, CommandQuit:
			return nil
		case CommandNew:
			r.SessionID, _, _ = r.sessions.Attach(ctx, "")
			_ = r.Handler.SystemOutput(ctx, "started session "+r.SessionID)
			continue
		case CommandSession:
			_ = r.Handler.SystemOutput(ctx, "session "+r.SessionID)
			continue
		}

		out, err := turn(signals.Context(), r.SessionID, input)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if signals.Context().Err() != nil {
				_ = r.Handler.SystemOutput(ctx, "turn interrupted")
				signals.Reset()
				continue
			}
			if err := r.Handler.SystemOutput(ctx, "error: "+err.Error()); err != nil {
				return err
			}
			continue
		}
		if err := r.Handler.Output(ctx, out); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}

func (r *Runner) signals(ctx context.Context) *SignalManager {
	if r.Signals {
		return NewSignalManager(ctx)
	}
	return newManualSignalManager(ctx)
}
