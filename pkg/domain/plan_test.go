package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan_Truncate(t *testing.T) {
	var steps []Step
	for i := 1; i <= 7; i++ {
		steps = append(steps, Step{Title: fmt.Sprintf("step %d", i), Status: StepPending})
	}
	p := Plan{Goal: "g", Steps: steps}

	dropped := p.Truncate(5)

	assert.Equal(t, 2, dropped)
	require.Len(t, p.Steps, 5)
	for i, s := range p.Steps {
		assert.Equal(t, fmt.Sprintf("step %d", i+1), s.Title)
	}
	assert.Equal(t, 0, p.Truncate(5))
}

func TestPlan_NextPending(t *testing.T) {
	p := Plan{Steps: []Step{
		{Title: "a", Status: StepCompleted},
		{Title: "b", Status: StepFailed},
		{Title: "c", Status: StepPending},
	}}
	assert.Equal(t, 2, p.NextPending())

	p.Steps[2].Status = StepCompleted
	assert.Equal(t, -1, p.NextPending())
	assert.Len(t, p.Completed(), 2)
}

func TestFallbackPlan(t *testing.T) {
	p := FallbackPlan("timeout")
	assert.Equal(t, FallbackGoal, p.Goal)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, StepAnalysis, p.Steps[0].Type)
	assert.Equal(t, StepPending, p.Steps[0].Status)
	assert.Contains(t, p.Steps[0].Description, "timeout")
}

func TestNormalizeTeam(t *testing.T) {
	tests := map[Team]Team{
		"":            TeamResearch,
		"research":    TeamResearch,
		"Resolution":  TeamResolution,
		" RESOLUTION": TeamResolution,
		"marketing":   TeamResearch,
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeTeam(in), "input %q", in)
	}
}

func TestParseRoute(t *testing.T) {
	tests := []struct {
		label string
		want  Route
		wf    Workflow
	}{
		{"conversation", RouteConversation, WorkflowConversation},
		{" Video ", RouteVideo, WorkflowVideo},
		{"AUDIO", RouteAudio, WorkflowAudio},
		{"none", RouteTerminal, WorkflowNone},
		{"video or audio", RouteTerminal, WorkflowNone},
		{"", RouteTerminal, WorkflowNone},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			r := ParseRoute(tt.label)
			assert.Equal(t, tt.want, r)
			assert.Equal(t, tt.wf, r.Workflow())
		})
	}
}

func TestState_LatestHumanSince(t *testing.T) {
	s := ConversationState{Messages: []Message{
		Human("old"),
		Assistant("plan"),
		Human("first"),
		Human("second"),
	}}

	m, ok := s.LatestHumanSince(2)
	require.True(t, ok)
	assert.Equal(t, "second", m.Content)

	_, ok = s.LatestHumanSince(4)
	assert.False(t, ok)

	assert.True(t, s.AwaitingReply())
	assert.Equal(t, "first second", s.RecentContext(2))
}
