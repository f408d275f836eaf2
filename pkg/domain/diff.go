package domain

import (
	"reflect"
)

// StateDiff represents the changes between two conversation states.
// It is serialized to JSON so that clients can apply partial updates.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	// Messages and Observations hold only the entries appended since the old state.
	Messages     []Message `json:"messages,omitempty"`
	Observations []string  `json:"observations,omitempty"`

	// Changed holds overwrite fields whose value differs, keyed by JSON name.
	// A field reset to its zero value is present with that zero value.
	Changed map[string]any `json:"changed,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(oldState, newState *ConversationState) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{SessionID: newState.SessionID}

	if oldState == nil {
		diff.Messages = newState.Messages
		diff.Observations = newState.Observations
	} else {
		diff.Messages = appended(oldState.Messages, newState.Messages)
		diff.Observations = appended(oldState.Observations, newState.Observations)
	}
	diff.Changed = diffScalars(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// appended assumes append-only semantics, which the reducers guarantee.
func appended[T any](old, new []T) []T {
	if len(new) > len(old) {
		return new[len(old):]
	}
	return nil
}

func diffScalars(old, new *ConversationState) map[string]any {
	next := scalars(new)
	delta := make(map[string]any)

	if old == nil {
		for k, v := range next {
			if !reflect.ValueOf(v).IsZero() {
				delta[k] = v
			}
		}
	} else {
		prev := scalars(old)
		for k, v := range next {
			if !reflect.DeepEqual(prev[k], v) {
				delta[k] = v
			}
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

func scalars(s *ConversationState) map[string]any {
	m := map[string]any{
		"workflow":          s.Workflow,
		"memory_context":    s.MemoryContext,
		"plan_iterations":   s.PlanIterations,
		"assigned_team":     s.AssignedTeam,
		"summary":           s.Summary,
		"video_path":        s.VideoPath,
		"audio_path":        s.AudioPath,
		"error_message":     s.ErrorMessage,
		"final_report":      s.FinalReport,
		"feedback_state":    s.FeedbackState,
		"plan_presented_at": s.PlanPresentedAt,
		"plan_feedback":     s.PlanFeedback,
		"replan_requested":  s.ReplanRequested,
	}
	if s.Plan != nil {
		m["plan"] = *s.Plan
	} else {
		m["plan"] = Plan{}
	}
	return m
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return len(d.Messages) == 0 &&
		len(d.Observations) == 0 &&
		len(d.Changed) == 0
}
