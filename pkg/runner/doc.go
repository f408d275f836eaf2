/*
Package runner implements the interactive chat loop over the CineBrain engine.

The runner reads user messages through a pluggable IOHandler, sends each one
to the engine (resuming suspended sessions transparently), and presents the
outcome. Turns pass through a Middleware chain for timeouts, logging and
headless plan approval.

# Usage

	r := runner.NewRunner(engine,
		runner.WithSessionID("user-1"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)
	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
