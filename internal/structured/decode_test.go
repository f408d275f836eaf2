package structured

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fenced", "Sure:\n```json\n{\"a\": 1}\n```\nthanks", `{"a": 1}`},
		{"prose around", `The answer is {"route": "video"} as requested.`, `{"route": "video"}`},
		{"trailing comma", `{"a": [1, 2,], "b": 3,}`, `{"a": [1, 2], "b": 3}`},
		{"comment outside string", "{\n\"url\": \"http://x.io\", // note\n\"b\": 1\n}", "{\n\"url\": \"http://x.io\",\n\"b\": 1\n}"},
		{"none", "no json here", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}

func TestDecodePlan(t *testing.T) {
	text := "```json\n" + `{
  "goal": "Compare Nolan films",
  "has_enough_context": false,
  "assigned_team": "Resolution",
  "steps": [
    {"title": "Box office", "description": "collect grosses", "step_type": "research", "status": "completed", "execution_res": "x"},
    {"title": "Themes", "description": "analyse", "step_type": "analysis"}
  ]
}` + "\n```"

	p, err := DecodePlan(text)
	require.NoError(t, err)
	assert.Equal(t, "Compare Nolan films", p.Goal)
	assert.Equal(t, domain.TeamResolution, p.AssignedTeam)
	require.Len(t, p.Steps, 2)
	for _, s := range p.Steps {
		assert.Equal(t, domain.StepPending, s.Status, "generated steps always start pending")
		assert.Empty(t, s.ExecutionResult)
	}
}

func TestDecode_Failures(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no object", "I cannot help with that."},
		{"malformed", `{"goal": "x", "steps": [}`},
		{"missing field", `{"goal": "x", "steps": []}`},
		{"bad step type", `{"goal": "x", "has_enough_context": false, "steps": [{"title": "a", "description": "b", "step_type": "dance"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePlan(tt.text)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrDecode)

			var de *domain.DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, "plan", de.Kind)
			assert.Equal(t, tt.text, de.Raw)
		})
	}
}

func TestDecode_AgentAction(t *testing.T) {
	a, err := Decode[AgentAction](`{"action": "tool", "tool": "web_search", "args": {"query": "dune"}}`, AgentActionSchema)
	require.NoError(t, err)
	assert.Equal(t, "web_search", a.Tool)
	assert.Equal(t, "dune", a.Args["query"])

	_, err = Decode[AgentAction](`{"action": "tool"}`, AgentActionSchema)
	assert.ErrorIs(t, err, domain.ErrDecode, "tool actions must name a tool")

	_, err = Decode[AgentAction](`{"action": "final"}`, AgentActionSchema)
	assert.ErrorIs(t, err, domain.ErrDecode, "final actions must carry an answer")
}
