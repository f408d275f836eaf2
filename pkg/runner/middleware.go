package runner

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/whitehatjr1001/cine-brain/internal/stages"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

// TurnFunc sends one user message to a session.
type TurnFunc func(ctx context.Context, sessionID, message string) (*domain.Outcome, error)

// Middleware wraps a TurnFunc with policy (timeouts, logging, auto-approval).
type Middleware func(next TurnFunc) TurnFunc

// Chain applies middlewares so that the first one is the outermost.
func Chain(fn TurnFunc, middlewares ...Middleware) TurnFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		fn = middlewares[i](fn)
	}
	return fn
}

// TimeoutMiddleware bounds every turn. Zero disables it.
func TimeoutMiddleware(d time.Duration) Middleware {
	return func(next TurnFunc) TurnFunc {
		if d <= 0 {
			return next
		}
		return func(ctx context.Context, sessionID, message string) (*domain.Outcome, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, sessionID, message)
		}
	}
}

// LoggingMiddleware records each turn with its status and duration.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next TurnFunc) TurnFunc {
		return func(ctx context.Context, sessionID, message string) (*domain.Outcome, error) {
			start := time.Now()
			out, err := next(ctx, sessionID, message)
			if err != nil {
				logger.Warn("turn failed", "session_id", sessionID, "error", err, "duration", time.Since(start))
				return out, err
			}
			logger.Info("turn finished",
				"session_id", sessionID,
				"status", out.Status,
				"stage", out.Stage,
				"duration", time.Since(start))
			return out, nil
		}
	}
}

// AutoAcceptMiddleware answers plan reviews with the accept marker so a
// headless run completes in a single call. At most maxRounds reviews are
// accepted per turn.
func AutoAcceptMiddleware(maxRounds int) Middleware {
	return func(next TurnFunc) TurnFunc {
		return func(ctx context.Context, sessionID, message string) (*domain.Outcome, error) {
			out, err := next(ctx, sessionID, message)
			for i := 0; err == nil && i < maxRounds && awaitingReview(out); i++ {
				out, err = next(ctx, sessionID, stages.AcceptedMarker)
			}
			return out, err
		}
	}
}

func awaitingReview(out *domain.Outcome) bool {
	return out != nil && out.Status == domain.OutcomeSuspended &&
		strings.Contains(out.Prompt, stages.AcceptedMarker)
}
