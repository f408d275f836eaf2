// Package agent runs a single plan step as a bounded tool-calling loop.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/whitehatjr1001/cine-brain/internal/logging"
	"github.com/whitehatjr1001/cine-brain/internal/structured"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
)

// DefaultMaxToolCalls caps tool invocations per step.
const DefaultMaxToolCalls = 10

// ErrEmptyAnswer is returned when the generator finishes a step without an answer.
var ErrEmptyAnswer = errors.New("empty answer")

// Agent is a ports.StepExecutor that lets the generator call tools until it
// produces a final answer or runs out of tool calls.
type Agent struct {
	gen      ports.Generator
	tools    ports.ToolCatalog
	maxCalls int
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures the Agent.
type Option func(*Agent)

// WithMaxToolCalls overrides DefaultMaxToolCalls. Negative values are ignored.
func WithMaxToolCalls(n int) Option {
	return func(a *Agent) {
		if n >= 0 {
			a.maxCalls = n
		}
	}
}

// WithLifecycleHooks registers tool call observers.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *Agent) {
		a.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an agent. tools may be nil, in which case the agent answers
// from the generator alone.
func New(gen ports.Generator, tools ports.ToolCatalog, opts ...Option) *Agent {
	a := &Agent{
		gen:      gen,
		tools:    tools,
		maxCalls: DefaultMaxToolCalls,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type exchange struct {
	Tool   string
	Args   string
	Output string
	Failed bool
}

// ExecuteStep runs the loop for one step.
// Tool errors are fed back to the generator. Generation and decoding errors fail the step.
func (a *Agent) ExecuteStep(ctx context.Context, task ports.StepTask) (string, error) {
	if a.gen == nil {
		return "", domain.ErrCapabilityUnavailable
	}
	log := a.logger.With("session_id", task.SessionID, "step", task.Index, "team", string(task.Team))
	ctx = ports.WithTask(ctx, task)

	var transcript []exchange
	for calls := 0; ; {
		prompt, err := a.prompt(task, transcript)
		if err != nil {
			return "", err
		}
		gen, err := a.gen.Generate(ctx, ports.GenerateRequest{
			Purpose: "step",
			System:  system(task),
			Prompt:  prompt,
			Schema:  structured.AgentActionSchema.Raw(),
		})
		if err != nil {
			return "", fmt.Errorf("step %q: %w", task.Step.Title, err)
		}
		action, err := structured.Decode[structured.AgentAction](gen.Text, structured.AgentActionSchema)
		if err != nil {
			return "", fmt.Errorf("step %q: %w", task.Step.Title, err)
		}

		if action.Action == "final" {
			answer := strings.TrimSpace(action.Answer)
			if answer == "" {
				return "", fmt.Errorf("step %q: %w", task.Step.Title, ErrEmptyAnswer)
			}
			log.Debug("step answered", "tool_calls", calls)
			return answer, nil
		}
		if calls >= a.maxCalls {
			return "", fmt.Errorf("step %q: %w (%d)", task.Step.Title, domain.ErrToolCallLimit, a.maxCalls)
		}
		calls++

		transcript = append(transcript, a.call(ctx, task, action))
	}
}

func (a *Agent) call(ctx context.Context, task ports.StepTask, action structured.AgentAction) exchange {
	args := action.Args
	if args == nil {
		args = map[string]any{}
	}
	encoded, _ := json.Marshal(args)
	ex := exchange{Tool: action.Tool, Args: string(encoded)}

	a.emit(ctx, a.hooks.OnToolCall, &domain.ToolEvent{
		EventBase: domain.EventBase{Timestamp: a.now(), Type: domain.EventToolCall, SessionID: task.SessionID},
		Step:      task.Step.Title,
		ToolName:  action.Tool,
		Input:     args,
	})

	var (
		out string
		err error
	)
	if a.tools == nil {
		err = fmt.Errorf("no tools are available")
	} else {
		out, err = a.tools.ExecuteTool(ctx, action.Tool, args)
	}
	if err != nil {
		a.logger.Debug("tool failed", "session_id", task.SessionID, "tool", action.Tool, "error", err)
		ex.Output = err.Error()
		ex.Failed = true
	} else {
		ex.Output = out
	}

	a.emit(ctx, a.hooks.OnToolReturn, &domain.ToolEvent{
		EventBase: domain.EventBase{Timestamp: a.now(), Type: domain.EventToolReturn, SessionID: task.SessionID},
		Step:      task.Step.Title,
		ToolName:  action.Tool,
		Output:    ex.Output,
		IsError:   ex.Failed,
	})
	return ex
}

func (a *Agent) emit(ctx context.Context, hook func(context.Context, *domain.ToolEvent), ev *domain.ToolEvent) {
	if hook != nil {
		hook(ctx, ev)
	}
}

// Specialist system prompts. A step is matched to one by its type and wording;
// anything else gets the team's generic prompt.
const (
	researcherPrompt = "You are a film researcher. Ground every claim in tool results when you can."
	doctorPrompt     = "You are a script doctor. Resolve inconsistencies and rewrite precisely."
	dialoguePrompt   = "You write dialogue for screenplays. Keep lines short and natural, and true " +
		"to each character and the situation described."
	editorPrompt = "You are a story editor. Find logic gaps, pacing problems and plot holes in the " +
		"outline, then propose the smallest fix for each."
	vibePrompt = "You match a story's tone to well-known films. Name comparable titles and say " +
		"what the emotional journey or world-building has in common."
	validatorPrompt = "You validate story ideas. Name the genre, themes and vibe, compare with " +
		"successful works, and list strengths and improvements."
	ideasPrompt = "You brainstorm original film ideas. Offer three to five distinct concepts of " +
		"two or three sentences each."
)

func system(task ports.StepTask) string {
	text := strings.ToLower(task.Step.Title + " " + task.Step.Description)
	mentions := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(text, w) {
				return true
			}
		}
		return false
	}
	team := domain.NormalizeTeam(task.Team)

	switch {
	case mentions("dialogue", "dialog"):
		return dialoguePrompt
	case mentions("vibe", "tone", "comparable", "similar films"):
		return vibePrompt
	case task.Step.Type == domain.StepValidation && team == domain.TeamResolution:
		return editorPrompt
	case task.Step.Type == domain.StepValidation:
		return validatorPrompt
	case task.Step.Type == domain.StepCreative && mentions("idea", "concept", "brainstorm"):
		return ideasPrompt
	case team == domain.TeamResolution:
		return doctorPrompt
	default:
		return researcherPrompt
	}
}

var stepTmpl = template.Must(template.New("step").Parse(`Goal: {{.Goal}}
{{if .Prior}}
# Completed steps
{{range .Prior}}## {{.Title}}
{{.ExecutionResult}}
{{end}}{{end}}
# Current step
{{.Step.Title}} ({{.Step.Type}})
{{.Step.Description}}
{{if .Step.SuggestedTool}}Suggested tool: {{.Step.SuggestedTool}}
{{end}}
# Tools
{{range .Tools}}- {{.Name}}: {{.Description}} args schema {{.Schema}}
{{else}}(none)
{{end}}{{if .Transcript}}
# Tool results so far
{{range .Transcript}}- {{.Tool}} {{.Args}}{{if .Failed}} failed{{end}}: {{.Output}}
{{end}}{{end}}
Remaining tool calls: {{.Remaining}}.
Reply with JSON {"action": "tool", "tool": name, "args": {...}} to call a tool
or {"action": "final", "answer": text} when the step is done.`))

func (a *Agent) prompt(task ports.StepTask, transcript []exchange) (string, error) {
	var tools []ports.ToolSpec
	if a.tools != nil {
		tools = a.tools.Tools()
	}
	var b strings.Builder
	err := stepTmpl.Execute(&b, map[string]any{
		"Goal":       task.Goal,
		"Prior":      task.Prior,
		"Step":       task.Step,
		"Tools":      tools,
		"Transcript": transcript,
		"Remaining":  a.maxCalls - len(transcript),
	})
	if err != nil {
		return "", fmt.Errorf("render step prompt: %w", err)
	}
	return b.String(), nil
}
