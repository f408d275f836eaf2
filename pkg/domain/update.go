package domain

// Update is the partial change a stage asks the executor to merge into state.
//
// Messages and Observations are appended. Every other field overwrites the
// current value when non-nil and is left untouched when nil.
type Update struct {
	Messages     []Message
	Observations []string

	Workflow        *Workflow
	MemoryContext   *string
	Plan            *Plan
	PlanIterations  *int
	AssignedTeam    *Team
	Summary         *string
	VideoPath       *string
	AudioPath       *string
	ErrorMessage    *string
	FinalReport     *string
	FeedbackState   *GateState
	PlanPresentedAt *int
	PlanFeedback    *string
	ReplanRequested *bool
}

// Ptr returns a pointer to v. It keeps overwrite fields terse at call sites.
func Ptr[T any](v T) *T {
	return &v
}

// Apply merges u into s in place.
func Apply(s *ConversationState, u Update) {
	if len(u.Messages) > 0 {
		s.Messages = append(s.Messages, u.Messages...)
	}
	if len(u.Observations) > 0 {
		s.Observations = append(s.Observations, u.Observations...)
	}

	overwrite(&s.Workflow, u.Workflow)
	overwrite(&s.MemoryContext, u.MemoryContext)
	if u.Plan != nil {
		p := u.Plan.Clone()
		s.Plan = &p
	}
	overwrite(&s.PlanIterations, u.PlanIterations)
	overwrite(&s.AssignedTeam, u.AssignedTeam)
	overwrite(&s.Summary, u.Summary)
	overwrite(&s.VideoPath, u.VideoPath)
	overwrite(&s.AudioPath, u.AudioPath)
	overwrite(&s.ErrorMessage, u.ErrorMessage)
	overwrite(&s.FinalReport, u.FinalReport)
	overwrite(&s.FeedbackState, u.FeedbackState)
	overwrite(&s.PlanPresentedAt, u.PlanPresentedAt)
	overwrite(&s.PlanFeedback, u.PlanFeedback)
	overwrite(&s.ReplanRequested, u.ReplanRequested)
}

func overwrite[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// IsZero reports whether the update carries no change at all.
func (u Update) IsZero() bool {
	return len(u.Fields()) == 0
}

// Fields lists the names of the fields the update touches, for logging.
func (u Update) Fields() []string {
	var f []string
	add := func(set bool, name string) {
		if set {
			f = append(f, name)
		}
	}
	add(len(u.Messages) > 0, "messages")
	add(len(u.Observations) > 0, "observations")
	add(u.Workflow != nil, "workflow")
	add(u.MemoryContext != nil, "memory_context")
	add(u.Plan != nil, "plan")
	add(u.PlanIterations != nil, "plan_iterations")
	add(u.AssignedTeam != nil, "assigned_team")
	add(u.Summary != nil, "summary")
	add(u.VideoPath != nil, "video_path")
	add(u.AudioPath != nil, "audio_path")
	add(u.ErrorMessage != nil, "error_message")
	add(u.FinalReport != nil, "final_report")
	add(u.FeedbackState != nil, "feedback_state")
	add(u.PlanPresentedAt != nil, "plan_presented_at")
	add(u.PlanFeedback != nil, "plan_feedback")
	add(u.ReplanRequested != nil, "replan_requested")
	return f
}
