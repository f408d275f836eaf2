package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whitehatjr1001/cine-brain"
	"github.com/whitehatjr1001/cine-brain/internal/testutils"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

func newEngine(t *testing.T, gen *testutils.Generator) *cinebrain.Engine {
	t.Helper()
	eng, err := cinebrain.New(context.Background(), testutils.Config(),
		cinebrain.WithGenerator(gen),
		cinebrain.WithClassifier(testutils.Conversation()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestRunner_TextConversation(t *testing.T) {
	eng := newEngine(t, testutils.ResearchGenerator("cast"))
	in := strings.NewReader("Research the film Heat\n[ACCEPTED]\n/session\n")
	out := &bytes.Buffer{}

	r := NewRunner(eng,
		WithSessionID("chat-1"),
		WithSignals(false),
		WithInputHandler(NewTextHandler(in, out, WithTextHandlerRenderer(func(s string) (string, error) {
			return "<" + s + ">", nil
		}))),
	)
	require.NoError(t, r.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "[ACCEPTED]", "plan review is presented")
	assert.Contains(t, text, "<# Report\n\nAll done.>")
	assert.Contains(t, text, "[System] session chat-1")

	cp, err := eng.Inspect(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckpointCompleted, cp.Status)
}

func TestRunner_AttachReplaysPendingReview(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t, testutils.ResearchGenerator("cast"))
	_, err := eng.Run(ctx, "chat-2", "Research Heat")
	require.NoError(t, err)

	out := &bytes.Buffer{}
	r := NewRunner(eng,
		WithSessionID("chat-2"),
		WithSignals(false),
		WithInputHandler(NewTextHandler(strings.NewReader("/exit\nignored\n"), out)),
	)
	require.NoError(t, r.Run(ctx))
	assert.Contains(t, out.String(), "[ACCEPTED]")
	assert.NotContains(t, out.String(), "All done.")
}

func TestRunner_JSONHandlerAutoAccept(t *testing.T) {
	eng := newEngine(t, testutils.ResearchGenerator("cast", "box office"))
	in := strings.NewReader(`{"message": "Research Heat"}` + "\n")
	out := &bytes.Buffer{}

	r := NewRunner(eng,
		WithSignals(false),
		WithInputHandler(NewJSONHandler(in, out)),
		WithMiddleware(AutoAcceptMiddleware(3)),
	)
	require.NoError(t, r.Run(context.Background()))
	assert.NotEmpty(t, r.SessionID)

	var outcome domain.Outcome
	require.NoError(t, json.NewDecoder(out).Decode(&outcome))
	assert.Equal(t, domain.OutcomeCompleted, outcome.Status)
	assert.Equal(t, "# Report\n\nAll done.", outcome.Artifact)
}

func TestRunner_NewSessionCommand(t *testing.T) {
	gen := testutils.NewGenerator().On("coordinate", `{"handoff_to_planner": false, "reply": "Hi!"}`)
	eng := newEngine(t, gen)
	out := &bytes.Buffer{}

	r := NewRunner(eng,
		WithSignals(false),
		WithInputHandler(NewJSONHandler(strings.NewReader("\"hello\"\n/new\n\"again\"\n"), out)),
	)
	require.NoError(t, r.Run(context.Background()))

	dec := json.NewDecoder(out)
	var first domain.Outcome
	require.NoError(t, dec.Decode(&first))
	assert.Equal(t, "Hi!", first.Artifact)

	var event SystemEvent
	require.NoError(t, dec.Decode(&event))
	assert.Equal(t, "system", event.Type)
	assert.Contains(t, event.Message, "started session")

	var second domain.Outcome
	require.NoError(t, dec.Decode(&second))
	assert.NotEqual(t, first.SessionID, second.SessionID)
}
