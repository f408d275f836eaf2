package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/runner"
)

// maxAutoAccept bounds plan reviews auto-approved within one turn.
const maxAutoAccept = 3

// Turn is the engine call a headless turn makes.
type Turn func(ctx context.Context, sessionID, message string) (*domain.Outcome, error)

// RunOnce sends a single message and prints the outcome: as a JSON object in
// JSON mode, else as markdown. A failed turn returns ErrTurnFailed.
func RunOnce(ctx context.Context, turn Turn, opts Options, logger *slog.Logger, message string, w io.Writer) (*domain.Outcome, error) {
	sanitized, err := runner.SanitizeInput(message)
	if err != nil {
		return nil, err
	}
	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	mw := []runner.Middleware{runner.LoggingMiddleware(logger)}
	if opts.AutoAccept {
		mw = append(mw, runner.AutoAcceptMiddleware(maxAutoAccept))
	}
	out, err := runner.Chain(runner.TurnFunc(turn), mw...)(ctx, sessionID, sanitized)
	if err != nil {
		return nil, err
	}

	if opts.JSON {
		if err := json.NewEncoder(w).Encode(out); err != nil {
			return out, err
		}
	} else {
		printOutcome(w, out)
	}
	if out.Status == domain.OutcomeFailed {
		return out, fmt.Errorf("%w: %s", ErrTurnFailed, out.Error)
	}
	return out, nil
}

func printOutcome(w io.Writer, out *domain.Outcome) {
	switch out.Status {
	case domain.OutcomeSuspended:
		fmt.Fprintln(w, out.Prompt)
		printSystemMessage(w, "Session '%s' is waiting. Reply with: cinebrain resume %s \"[ACCEPTED]\"", out.SessionID, out.SessionID)
	case domain.OutcomeFailed:
		printSystemMessage(w, "Session '%s' failed: %s", out.SessionID, out.Error)
	default:
		if out.Artifact != "" {
			fmt.Fprintln(w, out.Artifact)
		}
	}
	if out.VideoPath != "" {
		printSystemMessage(w, "Video: %s", out.VideoPath)
	}
	if out.AudioPath != "" {
		printSystemMessage(w, "Audio: %s", out.AudioPath)
	}
}
