package domain

// OutcomeStatus is the user-visible result kind of a Run or Resume call.
type OutcomeStatus string

const (
	OutcomeCompleted OutcomeStatus = "completed"
	OutcomeSuspended OutcomeStatus = "suspended"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Outcome is what the host shell receives: a final artifact, a suspension
// prompt, or a terminal state carrying an error message.
type Outcome struct {
	Status    OutcomeStatus     `json:"status"`
	SessionID string            `json:"session_id"`
	Stage     string            `json:"stage,omitempty"`
	Prompt    string            `json:"prompt,omitempty"`
	Artifact  string            `json:"artifact,omitempty"`
	VideoPath string            `json:"video_path,omitempty"`
	AudioPath string            `json:"audio_path,omitempty"`
	Error     string            `json:"error,omitempty"`
	State     ConversationState `json:"-"`
}

// NewOutcome derives the outcome of a finished run from its checkpoint.
func NewOutcome(cp *Checkpoint) *Outcome {
	out := &Outcome{
		SessionID: cp.SessionID,
		Stage:     cp.Stage,
		Prompt:    cp.Prompt,
		VideoPath: cp.State.VideoPath,
		AudioPath: cp.State.AudioPath,
		Error:     cp.State.ErrorMessage,
		State:     cp.State,
	}
	switch cp.Status {
	case CheckpointSuspended:
		out.Status = OutcomeSuspended
	case CheckpointFailed:
		out.Status = OutcomeFailed
	default:
		out.Status = OutcomeCompleted
	}
	if out.Status == OutcomeSuspended {
		return out
	}
	out.Artifact = cp.State.FinalReport
	if out.Artifact == "" {
		if last, ok := cp.State.LastMessage(); ok && last.Role == RoleAssistant {
			out.Artifact = last.Content
		}
	}
	return out
}
