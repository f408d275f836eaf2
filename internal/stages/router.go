package stages

import (
	"context"
	"fmt"

	"github.com/whitehatjr1001/cine-brain/internal/structured"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
)

// LLMClassifier classifies turns with the generation capability.
type LLMClassifier struct {
	gen    ports.Generator
	recent int
}

// NewLLMClassifier creates a classifier that asks gen for a route label.
func NewLLMClassifier(gen ports.Generator) *LLMClassifier {
	return &LLMClassifier{gen: gen, recent: 6}
}

// Classify returns RouteTerminal without calling the generator when the turn
// has already been answered, which is how the store_memory → router cycle exits.
func (c *LLMClassifier) Classify(ctx context.Context, s domain.ConversationState) (domain.Route, error) {
	if !s.AwaitingReply() {
		return domain.RouteTerminal, nil
	}
	if c.gen == nil {
		return domain.RouteTerminal, domain.ErrCapabilityUnavailable
	}

	prompt, err := render(routerTmpl, map[string]any{
		"Summary": s.Summary,
		"History": history(s.Messages, c.recent),
	})
	if err != nil {
		return domain.RouteTerminal, err
	}
	gen, err := c.gen.Generate(ctx, ports.GenerateRequest{
		Purpose: "route",
		Prompt:  prompt,
		Schema:  structured.RouteSchema.Raw(),
	})
	if err != nil {
		return domain.RouteTerminal, err
	}
	decision, err := structured.Decode[structured.RouteDecision](gen.Text, structured.RouteSchema)
	if err != nil {
		return domain.RouteTerminal, err
	}
	return domain.ParseRoute(decision.Route), nil
}

type router struct {
	deps Deps
}

// Run classifies the turn and records the selected workflow.
// Classification failures select no workflow, which ends the run.
func (st *router) Run(ctx context.Context, s domain.ConversationState) (domain.Result, error) {
	if st.deps.Classifier == nil {
		return domain.Next(domain.Update{Workflow: domain.Ptr(domain.WorkflowNone)}), nil
	}

	route, err := st.deps.Classifier.Classify(ctx, s)
	if err != nil {
		st.deps.logger().Warn("classification failed", "session_id", s.SessionID, "error", err)
		return domain.Next(domain.Update{
			Workflow:     domain.Ptr(domain.WorkflowNone),
			Observations: []string{fmt.Sprintf("routing failed: %v", err)},
		}), nil
	}

	u := domain.Update{Workflow: domain.Ptr(route.Workflow())}
	switch route {
	case domain.RouteConversation, domain.RouteVideo, domain.RouteAudio:
		u.Observations = []string{"routed to " + route.String()}
	case domain.RouteTerminal:
	}
	return domain.Next(u), nil
}

// selectWorkflow is the router's conditional transition.
func selectWorkflow(s domain.ConversationState) string {
	return string(s.Workflow)
}
