package domain

import "strings"

// Role identifies who authored a message.
type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single (role, content) entry of the conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Human builds a human-authored message.
func Human(content string) Message {
	return Message{Role: RoleHuman, Content: content}
}

// Assistant builds an assistant-authored message.
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ConversationState is the mutable record threaded through every stage of a session.
// Stages never mutate it directly; they return an Update that the executor merges.
type ConversationState struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`

	// Messages is append-only and never truncated.
	Messages []Message `json:"messages"`

	Workflow      Workflow `json:"workflow,omitempty"`
	MemoryContext string   `json:"memory_context,omitempty"`

	Plan           *Plan `json:"plan,omitempty"`
	PlanIterations int   `json:"plan_iterations"`

	// Observations is append-only: one provenance note per step plus routing notes.
	Observations []string `json:"observations,omitempty"`
	AssignedTeam Team     `json:"assigned_team,omitempty"`

	Summary      string `json:"summary,omitempty"`
	VideoPath    string `json:"video_path,omitempty"`
	AudioPath    string `json:"audio_path,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	FinalReport  string `json:"final_report,omitempty"`

	// Human feedback gate bookkeeping.
	FeedbackState   GateState `json:"feedback_state,omitempty"`
	PlanPresentedAt int       `json:"plan_presented_at"`
	PlanFeedback    string    `json:"plan_feedback,omitempty"`
	ReplanRequested bool      `json:"replan_requested,omitempty"`
}

// NewState creates an empty state for a session.
func NewState(sessionID, userID string) *ConversationState {
	return &ConversationState{
		SessionID: sessionID,
		UserID:    userID,
		Messages:  []Message{},
	}
}

// Clone returns a deep copy, so that callers can mutate the result safely.
func (s ConversationState) Clone() ConversationState {
	next := s
	next.Messages = append([]Message(nil), s.Messages...)
	next.Observations = append([]string(nil), s.Observations...)
	if s.Plan != nil {
		p := s.Plan.Clone()
		next.Plan = &p
	}
	return next
}

// LastMessage returns the most recent message, if any.
func (s ConversationState) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// LatestHumanSince returns the most recent human message at index >= from.
// Earlier human messages are ignored.
func (s ConversationState) LatestHumanSince(from int) (Message, bool) {
	if from < 0 {
		from = 0
	}
	for i := len(s.Messages) - 1; i >= from; i-- {
		if s.Messages[i].Role == RoleHuman {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// AwaitingReply reports whether the last message was authored by a human,
// i.e. whether there is an unanswered turn.
func (s ConversationState) AwaitingReply() bool {
	last, ok := s.LastMessage()
	return ok && last.Role == RoleHuman
}

// RecentContext joins the content of the last n messages.
func (s ConversationState) RecentContext(n int) string {
	start := len(s.Messages) - n
	if start < 0 {
		start = 0
	}
	parts := make([]string, 0, len(s.Messages)-start)
	for _, m := range s.Messages[start:] {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, " ")
}
