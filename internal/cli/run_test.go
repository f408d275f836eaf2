package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whitehatjr1001/cine-brain"
	"github.com/whitehatjr1001/cine-brain/internal/logging"
	"github.com/whitehatjr1001/cine-brain/internal/testutils"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

func newEngine(t *testing.T) *cinebrain.Engine {
	t.Helper()
	eng, err := cinebrain.New(context.Background(), testutils.Config(),
		cinebrain.WithGenerator(testutils.ResearchGenerator("cast")),
		cinebrain.WithClassifier(testutils.Conversation()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestRunOnce_SuspendsWithoutAutoAccept(t *testing.T) {
	eng := newEngine(t)
	buf := &bytes.Buffer{}

	out, err := RunOnce(context.Background(), eng.Send, Options{SessionID: "s1"}, logging.NewNop(), "Research Heat", buf)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSuspended, out.Status)
	assert.Contains(t, buf.String(), "[ACCEPTED]")
	assert.Contains(t, buf.String(), "cinebrain resume s1")

	out, err = RunOnce(context.Background(), eng.Send, Options{SessionID: "s1"}, logging.NewNop(), "[ACCEPTED]", buf)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCompleted, out.Status)
}

func TestRunOnce_AutoAcceptJSON(t *testing.T) {
	eng := newEngine(t)
	buf := &bytes.Buffer{}

	_, err := RunOnce(context.Background(), eng.Send, Options{JSON: true, AutoAccept: true}, logging.NewNop(), "Research Heat", buf)
	require.NoError(t, err)

	var out domain.Outcome
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, domain.OutcomeCompleted, out.Status)
	assert.Equal(t, "# Report\n\nAll done.", out.Artifact)
	assert.NotEmpty(t, out.SessionID)
}

func TestRunOnce_Failed(t *testing.T) {
	failed := func(_ context.Context, id, _ string) (*domain.Outcome, error) {
		return &domain.Outcome{SessionID: id, Status: domain.OutcomeFailed, Error: "stage budget exceeded"}, nil
	}
	buf := &bytes.Buffer{}
	_, err := RunOnce(context.Background(), failed, Options{SessionID: "s"}, logging.NewNop(), "hi", buf)
	assert.ErrorIs(t, err, ErrTurnFailed)
	assert.Contains(t, buf.String(), "stage budget exceeded")
}
