package domain

import "time"

// CheckpointStatus records how the last run of a session ended.
type CheckpointStatus string

const (
	CheckpointSuspended CheckpointStatus = "suspended"
	CheckpointCompleted CheckpointStatus = "completed"
	CheckpointFailed    CheckpointStatus = "failed"
)

// Checkpoint is the durable snapshot of a session, keyed by session id.
// It is written before suspending and after every finished run.
type Checkpoint struct {
	SessionID string            `json:"session_id"`
	State     ConversationState `json:"state"`
	// Stage is the stage to re-enter on resume. Empty unless suspended.
	Stage     string           `json:"stage,omitempty"`
	Status    CheckpointStatus `json:"status"`
	Prompt    string           `json:"prompt,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
	Revision  string           `json:"revision,omitempty"`
	// Sealed holds the encrypted checkpoint when the store encrypts at rest.
	// State and Prompt are then left empty.
	Sealed []byte `json:"sealed,omitempty"`
}

// Suspended reports whether the session is waiting for human input.
func (c *Checkpoint) Suspended() bool {
	return c != nil && c.Status == CheckpointSuspended
}
