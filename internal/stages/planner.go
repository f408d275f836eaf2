package stages

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/whitehatjr1001/cine-brain/internal/structured"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
)

type planner struct {
	deps Deps
}

// Run is the plan-iteration controller.
//
// Once plan_iterations reaches the configured maximum the planner stops
// generating and sends the current plan (or the fallback plan) to dispatch.
// A revision requested at the gate forces one more generation as long as the
// counter has not already gone past the maximum.
func (st *planner) Run(ctx context.Context, s domain.ConversationState) (domain.Result, error) {
	limit := st.deps.Settings.MaxPlanIterations
	forced := s.ReplanRequested && s.PlanIterations <= limit

	if s.PlanIterations >= limit && !forced {
		return st.skip(s), nil
	}

	var notes []string
	plan, err := st.generate(ctx, s)
	if err != nil {
		st.deps.logger().Warn("plan generation failed", "session_id", s.SessionID, "error", err)
		plan = domain.FallbackPlan(err.Error())
		notes = append(notes, fmt.Sprintf("planning failed, using fallback plan: %v", err))
	}
	notes = append(notes, st.shape(&plan)...)

	u := domain.Update{
		Plan:            &plan,
		PlanIterations:  domain.Ptr(s.PlanIterations + 1),
		ReplanRequested: domain.Ptr(false),
		PlanFeedback:    domain.Ptr(""),
		FeedbackState:   domain.Ptr(domain.GateAwaitingPlan),
		PlanPresentedAt: domain.Ptr(0),
		Observations:    notes,
		AssignedTeam:    domain.Ptr(plan.AssignedTeam),
	}

	if plan.HasEnoughContext {
		plan.Steps = nil
		return domain.Goto(Reporter, u), nil
	}
	return domain.Next(u), nil
}

// skip reuses the current plan without calling the generator.
func (st *planner) skip(s domain.ConversationState) domain.Result {
	note := "plan iteration limit reached, continuing with the current plan"
	plan := domain.FallbackPlan("plan iteration limit reached")
	if s.Plan != nil {
		plan = s.Plan.Clone()
	} else {
		note = "plan iteration limit reached, continuing with the fallback plan"
	}
	st.shape(&plan)

	u := domain.Update{
		Plan:            &plan,
		ReplanRequested: domain.Ptr(false),
		FeedbackState:   domain.Ptr(domain.GateApproved),
		AssignedTeam:    domain.Ptr(plan.AssignedTeam),
		Observations:    []string{note},
	}
	if plan.HasEnoughContext {
		plan.Steps = nil
		return domain.Goto(Reporter, u)
	}
	return domain.Goto(TeamDispatch, u)
}

// shape applies the documentation-step switch and the step cap, in that order.
func (st *planner) shape(p *domain.Plan) []string {
	var notes []string
	if !st.deps.Settings.EnableDocSteps {
		kept := p.Steps[:0:0]
		for _, step := range p.Steps {
			if step.Type != domain.StepDocumentation {
				kept = append(kept, step)
			}
		}
		if n := len(p.Steps) - len(kept); n > 0 {
			notes = append(notes, fmt.Sprintf("dropped %d documentation steps", n))
		}
		p.Steps = kept
	}
	if dropped := p.Truncate(st.deps.Settings.MaxStepNum); dropped > 0 {
		notes = append(notes, fmt.Sprintf("plan truncated to %d steps, dropped %d", st.deps.Settings.MaxStepNum, dropped))
	}
	return notes
}

func (st *planner) generate(ctx context.Context, s domain.ConversationState) (domain.Plan, error) {
	if st.deps.Generator == nil {
		return domain.Plan{}, domain.ErrCapabilityUnavailable
	}

	var previous string
	if s.Plan != nil {
		raw, err := json.MarshalIndent(s.Plan, "", "  ")
		if err != nil {
			return domain.Plan{}, fmt.Errorf("encode previous plan: %w", err)
		}
		previous = string(raw)
	}
	prompt, err := render(plannerTmpl, map[string]any{
		"MaxSteps": st.deps.Settings.MaxStepNum,
		"DocSteps": st.deps.Settings.EnableDocSteps,
		"Memory":   s.MemoryContext,
		"Summary":  s.Summary,
		"History":  history(s.Messages, st.deps.recent()),
		"Previous": previous,
		"Feedback": s.PlanFeedback,
		"Schema":   structured.PlanSchema.Raw(),
	})
	if err != nil {
		return domain.Plan{}, err
	}

	gen, err := st.deps.Generator.Generate(ctx, ports.GenerateRequest{
		Purpose: "plan",
		Prompt:  prompt,
		Schema:  structured.PlanSchema.Raw(),
	})
	if err != nil {
		return domain.Plan{}, err
	}
	return structured.DecodePlan(gen.Text)
}
