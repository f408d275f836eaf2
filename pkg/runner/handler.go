package runner

import (
	"context"

	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

// IOHandler is the interaction strategy of the chat loop: Text for terminals,
// JSON lines for pipes and other programs.
type IOHandler interface {
	// Input reads the next user message. io.EOF ends the conversation.
	Input(ctx context.Context) (string, error)

	// Output presents the outcome of a turn.
	Output(ctx context.Context, out *domain.Outcome) error

	// SystemOutput presents a meta-message (errors, status) distinct from
	// conversation content.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms markdown before it is written, e.g. to ANSI.
type ContentRenderer func(string) (string, error)
