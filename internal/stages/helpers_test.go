package stages_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/whitehatjr1001/cine-brain/internal/runtime"
	"github.com/whitehatjr1001/cine-brain/internal/stages"
	"github.com/whitehatjr1001/cine-brain/pkg/adapters/memory"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
	"github.com/whitehatjr1001/cine-brain/pkg/session"
)

// scriptedGenerator answers by request purpose and counts calls.
type scriptedGenerator struct {
	mu      sync.Mutex
	calls   map[string]int
	respond map[string]func(n int, req ports.GenerateRequest) (string, error)
}

func newGenerator() *scriptedGenerator {
	return &scriptedGenerator{
		calls:   make(map[string]int),
		respond: make(map[string]func(int, ports.GenerateRequest) (string, error)),
	}
}

func (g *scriptedGenerator) on(purpose string, fn func(n int, req ports.GenerateRequest) (string, error)) *scriptedGenerator {
	g.respond[purpose] = fn
	return g
}

func (g *scriptedGenerator) reply(purpose, text string) *scriptedGenerator {
	return g.on(purpose, func(int, ports.GenerateRequest) (string, error) { return text, nil })
}

func (g *scriptedGenerator) count(purpose string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[purpose]
}

func (g *scriptedGenerator) Generate(_ context.Context, req ports.GenerateRequest) (*ports.Generation, error) {
	g.mu.Lock()
	g.calls[req.Purpose]++
	n := g.calls[req.Purpose]
	fn := g.respond[req.Purpose]
	g.mu.Unlock()

	if fn == nil {
		return nil, fmt.Errorf("nothing scripted for %q", req.Purpose)
	}
	text, err := fn(n, req)
	if err != nil {
		return nil, err
	}
	return &ports.Generation{Text: text, Model: "stub"}, nil
}

// conversationRouter routes unanswered turns to the conversation workflow.
var conversationRouter = ports.ClassifierFunc(func(_ context.Context, s domain.ConversationState) (domain.Route, error) {
	if !s.AwaitingReply() {
		return domain.RouteTerminal, nil
	}
	return domain.RouteConversation, nil
})

func planJSON(t *testing.T, goal string, steps ...string) string {
	t.Helper()
	p := map[string]any{"goal": goal, "has_enough_context": false}
	list := make([]map[string]any, 0, len(steps))
	for _, title := range steps {
		list = append(list, map[string]any{
			"title":       title,
			"description": "do " + title,
			"step_type":   "research",
		})
	}
	p["steps"] = list
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return string(raw)
}

const handoff = `{"handoff_to_planner": true}`

// recordingSteps records every executed task and fails the indexes listed in fail.
type recordingSteps struct {
	mu    sync.Mutex
	tasks []ports.StepTask
	fail  map[int]error
}

func (r *recordingSteps) ExecuteStep(_ context.Context, task ports.StepTask) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
	if err := r.fail[task.Index]; err != nil {
		return "", err
	}
	return "result of " + task.Step.Title, nil
}

func (r *recordingSteps) executed() []ports.StepTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.StepTask(nil), r.tasks...)
}

func newEngine(t *testing.T, deps stages.Deps, opts ...runtime.EngineOption) *runtime.Engine {
	t.Helper()
	g, err := stages.Build(deps)
	require.NoError(t, err)
	return runtime.NewEngine(g, session.NewManager(memory.NewStore()), opts...)
}

func settings(mod func(*stages.Settings)) stages.Settings {
	s := stages.DefaultSettings()
	if mod != nil {
		mod(&s)
	}
	return s
}

type fakeMemory struct {
	mu      sync.Mutex
	extract string
	err     error
	queries []string
	stored  [][]string
}

func (m *fakeMemory) Extract(_ context.Context, _, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, text)
	return m.extract, m.err
}

func (m *fakeMemory) Store(_ context.Context, _ string, entries []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.stored = append(m.stored, entries)
	return nil
}

type fakeMedia struct {
	path     string
	requests []ports.MediaRequest
}

func (m *fakeMedia) Synthesize(_ context.Context, req ports.MediaRequest) (string, error) {
	m.requests = append(m.requests, req)
	return m.path, nil
}
