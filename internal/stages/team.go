package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
)

type teamDispatch struct{}

// Run normalizes the assigned team so the conditional transition is total.
func (teamDispatch) Run(_ context.Context, s domain.ConversationState) (domain.Result, error) {
	team := s.AssignedTeam
	if team == "" && s.Plan != nil {
		team = s.Plan.AssignedTeam
	}
	return domain.Next(domain.Update{AssignedTeam: domain.Ptr(domain.NormalizeTeam(team))}), nil
}

// selectTeam is the dispatcher's conditional transition.
func selectTeam(s domain.ConversationState) string {
	return string(domain.NormalizeTeam(s.AssignedTeam))
}

// team executes exactly one pending step per invocation.
type team struct {
	name     domain.Team
	executor ports.StepExecutor
	deps     Deps
}

// Run executes the first pending step. A failing step is marked failed with the
// error text as its result; it is neither retried nor allowed to abort the plan.
func (st *team) Run(ctx context.Context, s domain.ConversationState) (domain.Result, error) {
	if s.Plan == nil {
		return domain.Goto(Reporter, domain.Update{}), nil
	}
	idx := s.Plan.NextPending()
	if idx < 0 {
		return domain.Goto(Reporter, domain.Update{}), nil
	}

	plan := s.Plan.Clone()
	step := plan.Steps[idx]
	task := ports.StepTask{
		SessionID: s.SessionID,
		UserID:    st.deps.userID(s),
		Team:      st.name,
		Goal:      plan.Goal,
		Prior:     plan.Completed(),
		Step:      step,
		Index:     idx,
	}

	log := st.deps.logger().With("session_id", s.SessionID, "team", string(st.name), "step", idx)
	var note string
	result, err := st.execute(ctx, task)
	if err != nil {
		log.Warn("step failed", "error", err)
		step.Status = domain.StepFailed
		step.ExecutionResult = err.Error()
		note = fmt.Sprintf("step %d %q failed: %v", idx+1, step.Title, err)
	} else {
		log.Debug("step completed")
		step.Status = domain.StepCompleted
		step.ExecutionResult = result
		note = fmt.Sprintf("step %d %q completed: %s", idx+1, step.Title, abbreviate(result, 280))
	}
	plan.Steps[idx] = step

	u := domain.Update{Plan: &plan, Observations: []string{note}}
	if plan.NextPending() < 0 {
		return domain.Goto(Reporter, u), nil
	}
	return domain.Next(u), nil
}

func (st *team) execute(ctx context.Context, task ports.StepTask) (string, error) {
	if st.executor == nil {
		return "", fmt.Errorf("%s team: %w", st.name, domain.ErrCapabilityUnavailable)
	}
	return st.executor.ExecuteStep(ctx, task)
}

func abbreviate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
