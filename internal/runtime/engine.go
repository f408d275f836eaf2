package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/whitehatjr1001/cine-brain/internal/logging"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/dsl"
	"github.com/whitehatjr1001/cine-brain/pkg/session"
)

// DefaultStageBudget is the maximum number of stage invocations per Run or Resume call.
const DefaultStageBudget = 100

// DefaultUserID keys memory for sessions that do not name a user.
const DefaultUserID = "default_user"

// Engine drives the stage graph for one session at a time.
// Distinct sessions may run concurrently; turns of one session are serialized
// by the session manager.
type Engine struct {
	graph    *dsl.Graph
	sessions *session.Manager
	budget   int
	userID   string
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	now      func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithStageBudget overrides DefaultStageBudget. Non-positive values are ignored.
func WithStageBudget(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.budget = n
		}
	}
}

// WithUserID sets the user id stamped on new sessions.
func WithUserID(id string) EngineOption {
	return func(e *Engine) {
		if id != "" {
			e.userID = id
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the clock used for checkpoint timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an executor over a validated graph.
func NewEngine(graph *dsl.Graph, sessions *session.Manager, opts ...EngineOption) *Engine {
	e := &Engine{
		graph:    graph,
		sessions: sessions,
		budget:   DefaultStageBudget,
		userID:   DefaultUserID,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the stage graph the engine executes.
func (e *Engine) Graph() *dsl.Graph {
	return e.graph
}

// Budget returns the per-call stage invocation budget.
func (e *Engine) Budget() int {
	return e.budget
}

// Run starts a new turn for sessionID with message as the human input.
// A new session is created when none exists. Returns domain.ErrSessionSuspended
// if the session is waiting on Resume.
func (e *Engine) Run(ctx context.Context, sessionID, message string) (*domain.Outcome, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}

	var out *domain.Outcome
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		store := e.sessions.Store()

		state := domain.NewState(sessionID, e.userID)
		cp, err := store.Load(ctx, sessionID)
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
		case err != nil:
			return fmt.Errorf("failed to load session: %w", err)
		case cp.Suspended():
			return domain.ErrSessionSuspended
		default:
			state = &cp.State
			if state.UserID == "" {
				state.UserID = e.userID
			}
		}

		startTurn(state)
		if message != "" {
			domain.Apply(state, domain.Update{Messages: []domain.Message{domain.Human(message)}})
		}

		next := e.execute(ctx, state, e.graph.Entry())
		if err := store.Save(ctx, next); err != nil {
			return fmt.Errorf("failed to save checkpoint: %w", err)
		}
		out = domain.NewOutcome(next)
		return nil
	})
	return out, err
}

// Resume re-enters the suspended stage of sessionID after appending message.
// An empty message appends nothing, so the stage re-evaluates unchanged state.
func (e *Engine) Resume(ctx context.Context, sessionID, message string) (*domain.Outcome, error) {
	var out *domain.Outcome
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		store := e.sessions.Store()

		cp, err := store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if !cp.Suspended() {
			return domain.ErrNotSuspended
		}
		if !e.graph.Has(cp.Stage) || cp.Stage == domain.StageEnd {
			return fmt.Errorf("checkpoint stage %q: %w", cp.Stage, domain.ErrUnknownStage)
		}

		state := &cp.State
		if message != "" {
			domain.Apply(state, domain.Update{Messages: []domain.Message{domain.Human(message)}})
		}

		next := e.execute(ctx, state, cp.Stage)
		if err := store.Save(ctx, next); err != nil {
			return fmt.Errorf("failed to save checkpoint: %w", err)
		}
		out = domain.NewOutcome(next)
		return nil
	})
	return out, err
}

// Inspect returns the stored checkpoint of a session.
func (e *Engine) Inspect(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	return e.sessions.Load(ctx, sessionID)
}

// startTurn clears the per-turn fields while keeping history, observations and memory.
func startTurn(s *domain.ConversationState) {
	s.Workflow = domain.WorkflowNone
	s.Plan = nil
	s.PlanIterations = 0
	s.AssignedTeam = ""
	s.VideoPath = ""
	s.AudioPath = ""
	s.ErrorMessage = ""
	s.FinalReport = ""
	s.FeedbackState = domain.GateAwaitingPlan
	s.PlanPresentedAt = 0
	s.PlanFeedback = ""
	s.ReplanRequested = false
}

// execute runs the cooperative loop from stage until the terminal stage,
// a suspension, a stage failure or the invocation budget.
func (e *Engine) execute(ctx context.Context, state *domain.ConversationState, stage string) *domain.Checkpoint {
	log := e.logger.With("session_id", state.SessionID)
	current := stage

	for invocations := 0; ; invocations++ {
		if current == domain.StageEnd {
			log.Debug("run completed", "invocations", invocations)
			return e.checkpoint(state, domain.CheckpointCompleted, "", "")
		}
		if invocations >= e.budget {
			err := &domain.LoopBudgetError{Budget: e.budget, Stage: current}
			log.Error("run halted", "stage", current, "error", err)
			state.ErrorMessage = err.Error()
			return e.checkpoint(state, domain.CheckpointFailed, current, "")
		}

		res, err := e.invoke(ctx, current, state)
		if err != nil {
			log.Warn("stage failed", "stage", current, "error", err)
			state.ErrorMessage = err.Error()
			return e.checkpoint(state, domain.CheckpointFailed, current, "")
		}

		domain.Apply(state, res.Update)

		var next string
		switch res.Directive {
		case domain.DirectiveNext:
			next, err = e.graph.Next(current, *state)
		case domain.DirectiveGoto:
			next = res.Target
			if !e.graph.Has(next) {
				err = fmt.Errorf("goto %q: %w", next, domain.ErrUnknownStage)
			}
		case domain.DirectiveEnd:
			next = domain.StageEnd
		case domain.DirectiveSuspend:
			log.Debug("run suspended", "stage", current)
			e.emitSuspend(ctx, state.SessionID, current, res.Prompt)
			return e.checkpoint(state, domain.CheckpointSuspended, current, res.Prompt)
		default:
			err = fmt.Errorf("unknown directive %d", res.Directive)
		}
		if err != nil {
			serr := &domain.StageError{Stage: current, Err: err}
			log.Warn("transition failed", "stage", current, "error", serr)
			state.ErrorMessage = serr.Error()
			return e.checkpoint(state, domain.CheckpointFailed, current, "")
		}

		log.Debug("transition", "from", current, "to", next, "directive", res.Directive.String())
		current = next
	}
}

// invoke runs one stage on a copy of state, converting panics into errors.
func (e *Engine) invoke(ctx context.Context, name string, state *domain.ConversationState) (res domain.Result, err error) {
	stage, ok := e.graph.Stage(name)
	if !ok {
		return res, &domain.StageError{Stage: name, Err: domain.ErrUnknownStage}
	}

	start := e.now()
	e.emitStageEnter(ctx, state.SessionID, name)
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("stage panicked", "stage", name, "panic", r, "stack", string(debug.Stack()))
			err = &domain.StageError{Stage: name, Err: fmt.Errorf("panic: %v", r)}
		}
		e.emitStageLeave(ctx, state.SessionID, name, res, e.now().Sub(start), err)
	}()

	if err := ctx.Err(); err != nil {
		return res, &domain.StageError{Stage: name, Err: err}
	}

	res, err = stage.Run(ctx, state.Clone())
	if err != nil {
		return res, &domain.StageError{Stage: name, Err: err}
	}
	return res, nil
}

func (e *Engine) checkpoint(state *domain.ConversationState, status domain.CheckpointStatus, stage, prompt string) *domain.Checkpoint {
	return &domain.Checkpoint{
		SessionID: state.SessionID,
		State:     *state,
		Stage:     stage,
		Status:    status,
		Prompt:    prompt,
		UpdatedAt: e.now().UTC(),
		Revision:  uuid.NewString(),
	}
}
