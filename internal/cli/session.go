package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/whitehatjr1001/cine-brain/internal/presentation/tui"
	"github.com/whitehatjr1001/cine-brain/pkg/runner"
)

// ChatIO carries the streams of an interactive chat.
type ChatIO struct {
	In  io.Reader
	Out *os.File
}

// RunChat runs the interactive conversation loop against engine.
func RunChat(ctx context.Context, engine runner.Engine, opts Options, logger *slog.Logger, streams ChatIO) error {
	if streams.In == nil {
		streams.In = os.Stdin
	}
	if streams.Out == nil {
		streams.Out = os.Stdout
	}

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(streams.In, streams.Out)
	} else {
		tui.PrintBanner(streams.Out)
		_, last, err := runner.NewSessionManager(engine).Attach(ctx, opts.SessionID)
		if err != nil {
			return err
		}
		if opts.SessionID != "" {
			logSessionStatus(streams.Out, opts.SessionID, last)
		}
		handler = runner.NewTextHandler(streams.In, streams.Out,
			runner.WithTextHandlerRenderer(tui.NewRenderer(streams.Out)))
	}

	runnerOpts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithSessionID(opts.SessionID),
		runner.WithInputHandler(handler),
	}
	if opts.AutoAccept {
		runnerOpts = append(runnerOpts, runner.WithMiddleware(runner.AutoAcceptMiddleware(maxAutoAccept)))
	}

	r := runner.NewRunner(engine, runnerOpts...)
	err := r.Run(ctx)
	if !opts.JSON {
		printSystemMessage(streams.Out, "Session '%s' saved.", r.SessionID)
	}
	return handleExecutionError(err)
}
