// Package testutils provides scripted capabilities and engine setup shared by
// the shell tests (root facade, HTTP, MCP, runner, CLI).
package testutils

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/whitehatjr1001/cine-brain/internal/config"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
)

// Generator answers Generate calls by purpose. A purpose without a scripted
// reply returns domain.ErrCapabilityUnavailable.
type Generator struct {
	mu      sync.Mutex
	replies map[string]string
	calls   map[string]int
}

// NewGenerator returns a generator with no scripted replies.
func NewGenerator() *Generator {
	return &Generator{replies: map[string]string{}, calls: map[string]int{}}
}

// On scripts the reply for a purpose.
func (g *Generator) On(purpose, reply string) *Generator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies[purpose] = reply
	return g
}

// Calls reports how many times purpose was requested.
func (g *Generator) Calls(purpose string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[purpose]
}

func (g *Generator) Generate(_ context.Context, req ports.GenerateRequest) (*ports.Generation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[req.Purpose]++
	reply, ok := g.replies[req.Purpose]
	if !ok {
		return nil, fmt.Errorf("no reply for %q: %w", req.Purpose, domain.ErrCapabilityUnavailable)
	}
	return &ports.Generation{Text: reply, Model: "scripted"}, nil
}

// Handoff is a coordinator decision that hands the turn to the planner.
const Handoff = `{"handoff_to_planner": true}`

// Final is an agent action finishing a step with answer.
func Final(answer string) string {
	raw, _ := json.Marshal(map[string]any{"action": "final", "answer": answer})
	return string(raw)
}

// PlanJSON encodes a research plan with one step per title.
func PlanJSON(goal string, titles ...string) string {
	steps := make([]map[string]any, 0, len(titles))
	for _, title := range titles {
		steps = append(steps, map[string]any{
			"title":       title,
			"description": "do " + title,
			"step_type":   "research",
		})
	}
	raw, _ := json.Marshal(map[string]any{
		"goal":               goal,
		"has_enough_context": false,
		"steps":              steps,
	})
	return string(raw)
}

// ResearchGenerator scripts a full conversation turn: hand-off, a plan with
// the given steps, final answers for every step and a report.
func ResearchGenerator(steps ...string) *Generator {
	return NewGenerator().
		On("coordinate", Handoff).
		On("plan", PlanJSON("film research", steps...)).
		On("step", Final("findings")).
		On("report", "# Report\n\nAll done.")
}

// Route always classifies as route.
func Route(route domain.Route) ports.Classifier {
	return ports.ClassifierFunc(func(context.Context, domain.ConversationState) (domain.Route, error) {
		return route, nil
	})
}

// Conversation routes answered turns to the terminal, and everything else to
// the conversation workflow.
func Conversation() ports.Classifier {
	return ports.ClassifierFunc(func(_ context.Context, s domain.ConversationState) (domain.Route, error) {
		if !s.AwaitingReply() {
			return domain.RouteTerminal, nil
		}
		return domain.RouteConversation, nil
	})
}

// Config returns an in-memory configuration with no external services.
func Config() config.Config {
	cfg := config.Default()
	cfg.Store.Backend = "memory"
	cfg.Memory.Backend = "none"
	cfg.GenAI.APIKey = ""
	cfg.Serper.APIKey = ""
	return cfg
}
