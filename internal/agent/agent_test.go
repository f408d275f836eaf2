package agent_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whitehatjr1001/cine-brain/internal/agent"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
)

// sequence replies with the given outputs in order, repeating the last one.
type sequence struct {
	outputs []string
	prompts []string
	systems []string
}

func (s *sequence) Generate(_ context.Context, req ports.GenerateRequest) (*ports.Generation, error) {
	s.prompts = append(s.prompts, req.Prompt)
	s.systems = append(s.systems, req.System)
	i := len(s.prompts) - 1
	if i >= len(s.outputs) {
		i = len(s.outputs) - 1
	}
	return &ports.Generation{Text: s.outputs[i]}, nil
}

type toolbox struct {
	calls []string
	fail  map[string]error
}

func (t *toolbox) Tools() []ports.ToolSpec {
	return []ports.ToolSpec{{Name: "web_search", Description: "search the web", Schema: `{"type":"object"}`}}
}

func (t *toolbox) ExecuteTool(_ context.Context, name string, args map[string]any) (string, error) {
	t.calls = append(t.calls, name)
	if err := t.fail[name]; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s results for %v", name, args["query"]), nil
}

func task() ports.StepTask {
	return ports.StepTask{
		SessionID: "s",
		Goal:      "box office outlook",
		Team:      domain.TeamResearch,
		Prior:     []domain.Step{{Title: "comps", ExecutionResult: "Heat, Thief", Status: domain.StepCompleted}},
		Step:      domain.Step{Title: "forecast", Description: "estimate gross", Type: domain.StepAnalysis},
		Index:     1,
	}
}

func TestAgent_ToolThenFinal(t *testing.T) {
	gen := &sequence{outputs: []string{
		`{"action": "tool", "tool": "web_search", "args": {"query": "heist film grosses"}}`,
		`{"action": "final", "answer": "  Around $80M domestic.  "}`,
	}}
	tools := &toolbox{}
	var events []domain.EventType
	hooks := domain.LifecycleHooks{
		OnToolCall:   func(_ context.Context, e *domain.ToolEvent) { events = append(events, e.Type) },
		OnToolReturn: func(_ context.Context, e *domain.ToolEvent) { events = append(events, e.Type) },
	}

	out, err := agent.New(gen, tools, agent.WithLifecycleHooks(hooks)).ExecuteStep(context.Background(), task())
	require.NoError(t, err)

	assert.Equal(t, "Around $80M domestic.", out)
	assert.Equal(t, []string{"web_search"}, tools.calls)
	assert.Equal(t, []domain.EventType{domain.EventToolCall, domain.EventToolReturn}, events)
	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[0], "Heat, Thief")
	assert.Contains(t, gen.prompts[1], "web_search results for heist film grosses")
}

func TestAgent_ToolErrorsAreFedBack(t *testing.T) {
	gen := &sequence{outputs: []string{
		`{"action": "tool", "tool": "web_search", "args": {"query": "x"}}`,
		`{"action": "final", "answer": "no data"}`,
	}}
	tools := &toolbox{fail: map[string]error{"web_search": errors.New("rate limited")}}

	out, err := agent.New(gen, tools).ExecuteStep(context.Background(), task())
	require.NoError(t, err)

	assert.Equal(t, "no data", out)
	assert.Contains(t, gen.prompts[1], "failed: rate limited")
}

func TestAgent_ToolCallLimit(t *testing.T) {
	gen := &sequence{outputs: []string{`{"action": "tool", "tool": "web_search", "args": {}}`}}
	tools := &toolbox{}

	_, err := agent.New(gen, tools, agent.WithMaxToolCalls(3)).ExecuteStep(context.Background(), task())

	require.ErrorIs(t, err, domain.ErrToolCallLimit)
	assert.Len(t, tools.calls, 3)
	assert.Len(t, gen.prompts, 4)
}

func TestAgent_DecodeFailureFailsStep(t *testing.T) {
	gen := &sequence{outputs: []string{`{"action": "tool"}`}}

	_, err := agent.New(gen, &toolbox{}).ExecuteStep(context.Background(), task())

	require.ErrorIs(t, err, domain.ErrDecode)
	assert.True(t, strings.Contains(err.Error(), "forecast"))
}

func TestAgent_EmptyFinalAnswerFailsStep(t *testing.T) {
	gen := &sequence{outputs: []string{`{"action": "final", "answer": "   "}`}}

	out, err := agent.New(gen, nil).ExecuteStep(context.Background(), task())

	require.ErrorIs(t, err, agent.ErrEmptyAnswer)
	assert.Contains(t, err.Error(), "forecast")
	assert.Empty(t, out)
}

func TestAgent_SpecialistPrompts(t *testing.T) {
	cases := []struct {
		name string
		team domain.Team
		step domain.Step
		want string
	}{
		{"dialogue", domain.TeamResolution, domain.Step{Title: "Punch up dialogue", Type: domain.StepCreative}, "dialogue"},
		{"tone", domain.TeamResearch, domain.Step{Title: "Comparable films", Description: "match the tone", Type: domain.StepAnalysis}, "tone"},
		{"plot check", domain.TeamResolution, domain.Step{Title: "Check act two", Type: domain.StepValidation}, "plot holes"},
		{"idea check", domain.TeamResearch, domain.Step{Title: "Assess premise", Type: domain.StepValidation}, "validate story ideas"},
		{"brainstorm", domain.TeamResearch, domain.Step{Title: "Brainstorm concepts", Type: domain.StepCreative}, "brainstorm"},
		{"resolution default", domain.TeamResolution, domain.Step{Title: "Fix timeline", Type: domain.StepAnalysis}, "script doctor"},
		{"research default", domain.TeamResearch, domain.Step{Title: "forecast", Type: domain.StepAnalysis}, "film researcher"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := &sequence{outputs: []string{`{"action": "final", "answer": "ok"}`}}
			tk := task()
			tk.Team = tc.team
			tk.Step = tc.step

			_, err := agent.New(gen, nil).ExecuteStep(context.Background(), tk)
			require.NoError(t, err)

			require.Len(t, gen.systems, 1)
			assert.Contains(t, gen.systems[0], tc.want)
		})
	}
}

func TestAgent_NoToolsAnswersDirectly(t *testing.T) {
	gen := &sequence{outputs: []string{`{"action": "final", "answer": "done"}`}}

	out, err := agent.New(gen, nil).ExecuteStep(context.Background(), task())
	require.NoError(t, err)

	assert.Equal(t, "done", out)
	assert.Contains(t, gen.prompts[0], "(none)")
}
