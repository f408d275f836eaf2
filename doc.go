/*
Package cinebrain is a conversational task-orchestration engine for film
research and media generation.

A turn runs through a stage graph: memory injection, routing, a conversation
coordinator, a planner with a human feedback gate, team dispatch and step
execution, reporting, and video or audio synthesis. State is checkpointed after
every turn, so a session suspended at the feedback gate can be resumed later,
by another process if the store is shared.

# Usage

	cfg, err := cinebrain.LoadConfig("")
	if err != nil {
		log.Fatal(err)
	}
	eng, err := cinebrain.New(ctx, cfg, cinebrain.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	out, err := eng.Run(ctx, "session-1", "Research the box office of Heat (1995)")
	if err != nil {
		log.Fatal(err)
	}
	for out.Status == domain.OutcomeSuspended {
		fmt.Println(out.Prompt)
		out, err = eng.Resume(ctx, "session-1", readLine())
		if err != nil {
			log.Fatal(err)
		}
	}
	fmt.Println(out.Artifact)

Capabilities (text generation, memory, media, step execution) are built from
the configuration, or injected with the With* options for tests and embedding.
*/
package cinebrain
