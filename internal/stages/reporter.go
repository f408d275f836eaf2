package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
)

type reporter struct {
	deps Deps
}

// Run synthesizes the final artifact and always ends the run.
// When the generator is unavailable the report is assembled from the step results.
func (st *reporter) Run(ctx context.Context, s domain.ConversationState) (domain.Result, error) {
	plan := domain.Plan{Goal: "answer the user's request"}
	if s.Plan != nil {
		plan = s.Plan.Clone()
	}

	var notes []string
	report, err := st.generate(ctx, s, plan)
	if err != nil {
		st.deps.logger().Warn("report generation failed", "session_id", s.SessionID, "error", err)
		notes = append(notes, fmt.Sprintf("reporter unavailable: %v", err))
		report = compile(plan)
	}

	return domain.End(domain.Update{
		FinalReport:  domain.Ptr(report),
		Messages:     say(report),
		Observations: notes,
	}), nil
}

func (st *reporter) generate(ctx context.Context, s domain.ConversationState, plan domain.Plan) (string, error) {
	if st.deps.Generator == nil {
		return "", domain.ErrCapabilityUnavailable
	}
	prompt, err := render(reporterTmpl, map[string]any{
		"Goal":           plan.Goal,
		"ContextSummary": plan.ContextSummary,
		"Steps":          plan.Steps,
		"Observations":   s.Observations,
		"History":        history(s.Messages, st.deps.recent()),
	})
	if err != nil {
		return "", err
	}
	gen, err := st.deps.Generator.Generate(ctx, ports.GenerateRequest{Purpose: "report", Prompt: prompt})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(gen.Text)
	if text == "" {
		return "", fmt.Errorf("empty report")
	}
	return text, nil
}

// compile builds a plain markdown report from the plan alone.
func compile(p domain.Plan) string {
	var b strings.Builder
	title := p.Title
	if title == "" {
		title = "Report"
	}
	fmt.Fprintf(&b, "# %s\n\n**Goal:** %s\n", title, p.Goal)
	if p.ContextSummary != "" {
		fmt.Fprintf(&b, "\n%s\n", p.ContextSummary)
	}
	for i, s := range p.Steps {
		fmt.Fprintf(&b, "\n## %d. %s (%s)\n\n", i+1, s.Title, s.Status)
		if s.ExecutionResult != "" {
			fmt.Fprintf(&b, "%s\n", s.ExecutionResult)
		}
	}
	return strings.TrimSpace(b.String())
}
