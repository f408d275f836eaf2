package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		old      *ConversationState
		new      *ConversationState
		wantDiff *StateDiff // nil means no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &ConversationState{
				SessionID: "sess-1",
				Messages:  []Message{Human("hi")},
				Workflow:  WorkflowConversation,
			},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Messages:  []Message{Human("hi")},
				Changed:   map[string]any{"workflow": WorkflowConversation},
			},
		},
		{
			name: "No Changes",
			old: &ConversationState{
				SessionID: "sess-1",
				Messages:  []Message{Human("hi")},
			},
			new: &ConversationState{
				SessionID: "sess-1",
				Messages:  []Message{Human("hi")},
			},
			wantDiff: nil,
		},
		{
			name: "Messages Appended",
			old: &ConversationState{
				SessionID: "sess-1",
				Messages:  []Message{Human("hi")},
			},
			new: &ConversationState{
				SessionID: "sess-1",
				Messages:  []Message{Human("hi"), Assistant("hello")},
			},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Messages:  []Message{Assistant("hello")},
			},
		},
		{
			name: "Scalars Changed and Observation Appended",
			old: &ConversationState{
				SessionID:      "sess-1",
				PlanIterations: 1,
				ErrorMessage:   "boom",
			},
			new: &ConversationState{
				SessionID:      "sess-1",
				PlanIterations: 2,
				Observations:   []string{"step 1 completed"},
			},
			wantDiff: &StateDiff{
				SessionID:    "sess-1",
				Observations: []string{"step 1 completed"},
				Changed:      map[string]any{"plan_iterations": 2, "error_message": ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			if d := cmp.Diff(tt.wantDiff, got); d != "" {
				t.Errorf("Diff() mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestDiff_PlanChange(t *testing.T) {
	old := &ConversationState{SessionID: "s"}
	p := FallbackPlan("")
	new := &ConversationState{SessionID: "s", Plan: &p}

	got := Diff(old, new)
	require.NotNil(t, got)
	assert.Equal(t, p, got.Changed["plan"])
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Empty Changed Omitted", func(t *testing.T) {
		s1 := &ConversationState{SessionID: "s", Messages: []Message{Human("a")}}
		s2 := &ConversationState{SessionID: "s", Messages: []Message{Human("a"), Assistant("b")}}
		diff := Diff(s1, s2)
		require.NotNil(t, diff)

		bytes, err := json.Marshal(diff)
		require.NoError(t, err)
		assert.False(t, strings.Contains(string(bytes), `"changed"`), "got: %s", bytes)
		assert.Contains(t, string(bytes), `"role":"assistant"`)
	})
}
