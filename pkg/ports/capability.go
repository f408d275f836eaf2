package ports

import (
	"context"

	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

// GenerateRequest is a single call into the text generation capability.
type GenerateRequest struct {
	// Purpose labels the call for logs and metrics (e.g. "plan", "route", "report").
	Purpose string
	System  string
	Prompt  string
	// Schema, when set, is a JSON schema the response must satisfy.
	// Implementations switch the backend to JSON output mode.
	Schema string
}

// Generation is the raw output of a Generator.
type Generation struct {
	Text  string
	Model string
}

// Generator produces text. Failures (timeouts, refusals) are returned as errors.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Generation, error)
}

// Classifier decides which downstream capability handles the current turn.
// Unknown or ambiguous results must map to domain.RouteTerminal.
type Classifier interface {
	Classify(ctx context.Context, state domain.ConversationState) (domain.Route, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, state domain.ConversationState) (domain.Route, error)

func (f ClassifierFunc) Classify(ctx context.Context, state domain.ConversationState) (domain.Route, error) {
	return f(ctx, state)
}

// MemoryService stores and retrieves long-term facts per user.
// It is eventually consistent: a stored fact may not be returned by the next Extract.
type MemoryService interface {
	// Extract returns formatted context relevant to text, or "" when nothing applies.
	Extract(ctx context.Context, userID, text string) (string, error)
	// Store records entries for the user.
	Store(ctx context.Context, userID string, entries []string) error
}

// ToolSpec describes a tool available to step execution.
type ToolSpec struct {
	Name        string
	Description string
	// Schema is the JSON schema of the tool's arguments.
	Schema string
}

// ToolExecutor runs a named tool.
type ToolExecutor interface {
	ExecuteTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// ToolCatalog is a ToolExecutor that can describe its tools.
type ToolCatalog interface {
	ToolExecutor
	Tools() []ToolSpec
}

// StepTask is the input for executing one plan step.
type StepTask struct {
	SessionID string
	UserID    string
	Team      domain.Team
	Goal      string
	// Prior holds completed steps in plan order, each with its execution result.
	Prior []domain.Step
	Step  domain.Step
	Index int
}

// StepExecutor runs exactly one plan step and returns its result text.
type StepExecutor interface {
	ExecuteStep(ctx context.Context, task StepTask) (string, error)
}

// StepExecutorFunc adapts a function to the StepExecutor interface.
type StepExecutorFunc func(ctx context.Context, task StepTask) (string, error)

func (f StepExecutorFunc) ExecuteStep(ctx context.Context, task StepTask) (string, error) {
	return f(ctx, task)
}

// MediaKind selects the synthesis backend.
type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

// MediaRequest asks for a media artifact.
type MediaRequest struct {
	Kind      MediaKind
	SessionID string
	Prompt    string
}

// MediaGenerator synthesizes media and returns the path of the produced file.
type MediaGenerator interface {
	Synthesize(ctx context.Context, req MediaRequest) (string, error)
}

type taskKey struct{}

// WithTask attaches the step being executed to ctx so tools can scope their
// work to the session and user.
func WithTask(ctx context.Context, task StepTask) context.Context {
	return context.WithValue(ctx, taskKey{}, task)
}

// TaskFrom returns the step attached by WithTask.
func TaskFrom(ctx context.Context) (StepTask, bool) {
	task, ok := ctx.Value(taskKey{}).(StepTask)
	return task, ok
}
