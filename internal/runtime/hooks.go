package runtime

import (
	"context"
	"time"

	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

func (e *Engine) base(t domain.EventType, sessionID string) domain.EventBase {
	return domain.EventBase{Timestamp: e.now(), Type: t, SessionID: sessionID}
}

func (e *Engine) emitStageEnter(ctx context.Context, sessionID, stage string) {
	if e.hooks.OnStageEnter == nil {
		return
	}
	e.hooks.OnStageEnter(ctx, &domain.StageEvent{
		EventBase: e.base(domain.EventStageEnter, sessionID),
		Stage:     stage,
	})
}

func (e *Engine) emitStageLeave(ctx context.Context, sessionID, stage string, res domain.Result, d time.Duration, err error) {
	if e.hooks.OnStageLeave == nil {
		return
	}
	ev := &domain.StageEvent{
		EventBase: e.base(domain.EventStageLeave, sessionID),
		Stage:     stage,
		Duration:  d,
		Err:       err,
	}
	if err == nil {
		ev.Directive = res.Directive.String()
		ev.Fields = res.Update.Fields()
	}
	e.hooks.OnStageLeave(ctx, ev)
}

func (e *Engine) emitSuspend(ctx context.Context, sessionID, stage, prompt string) {
	if e.hooks.OnSuspend == nil {
		return
	}
	e.hooks.OnSuspend(ctx, &domain.SuspendEvent{
		EventBase: e.base(domain.EventSuspend, sessionID),
		Stage:     stage,
		Prompt:    prompt,
	})
}
