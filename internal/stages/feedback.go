package stages

import (
	"context"
	"errors"
	"strings"

	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

// correctivePrompt is returned when the reply to a presented plan is neither marker.
const correctivePrompt = "Please reply " + AcceptedMarker + " to run the plan, or " +
	EditPlanMarker + " followed by the changes you want."

var errNoPlan = errors.New("no plan to review")

type humanFeedback struct {
	deps Deps
}

// Run drives the approval state machine:
//
//	awaiting_plan → awaiting_user_input → approved | revision_requested | awaiting_user_input
//
// Only the latest human message sent after the plan was presented is evaluated.
// Re-entering without such a message suspends again with the same prompt and no update.
func (st *humanFeedback) Run(_ context.Context, s domain.ConversationState) (domain.Result, error) {
	if s.Plan == nil {
		return domain.Result{}, errNoPlan
	}
	if st.deps.Settings.AutoAcceptPlan {
		return approve(s, []string{"plan accepted automatically"}), nil
	}

	if s.FeedbackState != domain.GateAwaitingUserInput {
		prompt := presentPlan(*s.Plan)
		return domain.Suspend(prompt, domain.Update{
			Messages:        say(prompt),
			FeedbackState:   domain.Ptr(domain.GateAwaitingUserInput),
			PlanPresentedAt: domain.Ptr(len(s.Messages) + 1),
		}), nil
	}

	reply, ok := s.LatestHumanSince(s.PlanPresentedAt)
	if !ok {
		return domain.Suspend(presentPlan(*s.Plan), domain.Update{}), nil
	}

	text := strings.TrimSpace(reply.Content)
	switch {
	case hasPrefixFold(text, AcceptedMarker):
		return approve(s, nil), nil
	case hasPrefixFold(text, EditPlanMarker):
		feedback := strings.TrimSpace(text[len(EditPlanMarker):])
		return domain.Goto(Planner, domain.Update{
			FeedbackState:   domain.Ptr(domain.GateRevision),
			PlanFeedback:    domain.Ptr(feedback),
			ReplanRequested: domain.Ptr(true),
		}), nil
	default:
		return domain.Suspend(correctivePrompt, domain.Update{}), nil
	}
}

// approve takes the team from the reviewed plan only, so a team named by an
// earlier plan never survives a revision. The resolved team is written back
// into the plan and the state.
func approve(s domain.ConversationState, notes []string) domain.Result {
	team := domain.TeamResearch
	u := domain.Update{
		FeedbackState: domain.Ptr(domain.GateApproved),
		Observations:  notes,
	}
	if s.Plan != nil {
		team = domain.NormalizeTeam(s.Plan.AssignedTeam)
		plan := s.Plan.Clone()
		plan.AssignedTeam = team
		u.Plan = &plan
	}
	u.AssignedTeam = domain.Ptr(team)
	return domain.Goto(TeamDispatch, u)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
