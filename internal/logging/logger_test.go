package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

func TestNewWithWriter_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelInfo, false)

	log.Info("stage failed", "error", errors.New("boom"))
	log.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "err=boom")
	assert.NotContains(t, out, "hidden")
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := Hooks(NewWithWriter(&buf, slog.LevelDebug, false))
	ctx := context.Background()

	hooks.OnStageEnter(ctx, &domain.StageEvent{EventBase: domain.EventBase{SessionID: "s1"}, Stage: "planner"})
	hooks.OnStageLeave(ctx, &domain.StageEvent{Stage: "planner", Err: errors.New("boom")})
	hooks.OnSuspend(ctx, &domain.SuspendEvent{Stage: "human_feedback"})

	out := buf.String()
	assert.Contains(t, out, "stage_enter session_id=s1 stage=planner")
	assert.Contains(t, out, "level=WARN msg=stage_failed")
	assert.Contains(t, out, "err=boom")
	assert.Contains(t, out, "msg=suspended")
}
