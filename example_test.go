package cinebrain_test

import (
	"context"
	"fmt"
	"log"

	"github.com/whitehatjr1001/cine-brain"
	"github.com/whitehatjr1001/cine-brain/internal/testutils"
)

// ExampleEngine_Resume drives a research turn through the feedback gate with
// scripted capabilities.
func ExampleEngine_Resume() {
	gen := testutils.ResearchGenerator("cast and crew")
	eng, err := cinebrain.New(context.Background(), testutils.Config(),
		cinebrain.WithGenerator(gen),
		cinebrain.WithClassifier(testutils.Conversation()),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	ctx := context.Background()
	out, err := eng.Run(ctx, "demo", "Research the film Heat")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out.Status, out.Stage)

	out, err = eng.Resume(ctx, "demo", "[ACCEPTED]")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out.Status)
	fmt.Println(out.Artifact)

	// Output:
	// suspended human_feedback
	// completed
	// # Report
	//
	// All done.
}
