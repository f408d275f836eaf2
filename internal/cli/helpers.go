// Package cli holds the behaviour behind the cinebrain commands, kept out of
// cmd/ so it can be tested without a process.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/whitehatjr1001/cine-brain/internal/presentation/tui"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

var stderr io.Writer = os.Stderr

// ErrTurnFailed is returned when a headless turn ends in the failed state.
var ErrTurnFailed = errors.New("turn failed")

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, tui.System(w, fmt.Sprintf(format, args...)))
}

func logSessionStatus(w io.Writer, sessionID string, last *domain.Outcome) {
	if last == nil {
		printSystemMessage(w, "Session '%s' active.", sessionID)
		return
	}
	switch last.Status {
	case domain.OutcomeSuspended:
		printSystemMessage(w, "Resuming session '%s' at '%s'.", sessionID, last.Stage)
	default:
		printSystemMessage(w, "Continuing session '%s' (%s).", sessionID, last.Status)
	}
}

// handleExecutionError maps interruptions to a clean exit.
func handleExecutionError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
