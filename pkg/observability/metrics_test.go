package observability_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/observability"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnStageEnter(ctx, &domain.StageEvent{Stage: "planner"})
	hooks.OnStageLeave(ctx, &domain.StageEvent{Stage: "planner", Duration: 20 * time.Millisecond})
	hooks.OnStageEnter(ctx, &domain.StageEvent{Stage: "planner"})
	hooks.OnStageLeave(ctx, &domain.StageEvent{Stage: "planner", Err: errors.New("boom")})
	hooks.OnToolReturn(ctx, &domain.ToolEvent{ToolName: "web_search"})
	hooks.OnToolReturn(ctx, &domain.ToolEvent{ToolName: "web_search", IsError: true})
	hooks.OnSuspend(ctx, &domain.SuspendEvent{Stage: "human_feedback"})
	m.ObserveOutcome("suspended")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)

	assert.Contains(t, body, `cinebrain_stage_visits_total{stage="planner"} 2`)
	assert.Contains(t, body, `cinebrain_stage_errors_total{stage="planner"} 1`)
	assert.Contains(t, body, `cinebrain_stage_duration_seconds_count{stage="planner"} 2`)
	assert.Contains(t, body, `cinebrain_tool_calls_total{outcome="ok",tool="web_search"} 1`)
	assert.Contains(t, body, `cinebrain_tool_calls_total{outcome="error",tool="web_search"} 1`)
	assert.Contains(t, body, `cinebrain_suspensions_total 1`)
	assert.Contains(t, body, `cinebrain_turns_total{status="suspended"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestMetrics_Composable(t *testing.T) {
	m := observability.NewMetrics()
	var seen []string
	hooks := m.Hooks().Merge(domain.LifecycleHooks{
		OnStageEnter: func(_ context.Context, e *domain.StageEvent) { seen = append(seen, e.Stage) },
	})

	hooks.OnStageEnter(context.Background(), &domain.StageEvent{Stage: "router"})

	assert.Equal(t, []string{"router"}, seen)
	assert.Equal(t, 1, testutil.CollectAndCount(m.Registry(), "cinebrain_stage_visits_total"))
}
