package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/whitehatjr1001/cine-brain/internal/structured"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
)

// unavailableReply is sent when the coordinator cannot reach the generator.
const unavailableReply = "I can't think this through right now. Please try again in a moment."

type coordinator struct {
	deps Deps
}

// Run answers directly or hands the turn to the planner.
func (st *coordinator) Run(ctx context.Context, s domain.ConversationState) (domain.Result, error) {
	decision, err := st.decide(ctx, s)
	if err != nil {
		st.deps.logger().Warn("coordinator failed", "session_id", s.SessionID, "error", err)
		return domain.Next(domain.Update{
			Messages:     say(unavailableReply),
			Observations: []string{fmt.Sprintf("coordinator unavailable: %v", err)},
		}), nil
	}

	if decision.Handoff {
		return domain.Goto(Planner, domain.Update{}), nil
	}
	reply := strings.TrimSpace(decision.Reply)
	if reply == "" {
		return domain.Goto(Planner, domain.Update{}), nil
	}
	return domain.Next(domain.Update{Messages: say(reply)}), nil
}

func (st *coordinator) decide(ctx context.Context, s domain.ConversationState) (structured.CoordinatorDecision, error) {
	var zero structured.CoordinatorDecision
	if st.deps.Generator == nil {
		return zero, domain.ErrCapabilityUnavailable
	}
	prompt, err := render(coordinatorTmpl, map[string]any{
		"Memory":  s.MemoryContext,
		"Summary": s.Summary,
		"History": history(s.Messages, st.deps.recent()),
	})
	if err != nil {
		return zero, err
	}
	gen, err := st.deps.Generator.Generate(ctx, ports.GenerateRequest{
		Purpose: "coordinate",
		Prompt:  prompt,
		Schema:  structured.CoordinatorSchema.Raw(),
	})
	if err != nil {
		return zero, err
	}
	return structured.Decode[structured.CoordinatorDecision](gen.Text, structured.CoordinatorSchema)
}
