package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// signalGrace is how long Settle waits for an interrupt trailing an input error.
const signalGrace = 100 * time.Millisecond

// SignalManager scopes interrupts to one turn. SIGINT or SIGTERM cancels the
// current Context; Reset arms a fresh one for the next turn.
type SignalManager struct {
	parent context.Context
	arm    func(context.Context) (context.Context, context.CancelFunc)
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSignalManager listens for SIGINT and SIGTERM under parent.
func NewSignalManager(parent context.Context) *SignalManager {
	return newSignalManager(parent, func(ctx context.Context) (context.Context, context.CancelFunc) {
		return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	})
}

// newManualSignalManager ignores OS signals; only parent or Stop cancel it.
func newManualSignalManager(parent context.Context) *SignalManager {
	return newSignalManager(parent, context.WithCancel)
}

func newSignalManager(parent context.Context, arm func(context.Context) (context.Context, context.CancelFunc)) *SignalManager {
	if parent == nil {
		parent = context.Background()
	}
	sm := &SignalManager{parent: parent, arm: arm}
	sm.Reset()
	return sm
}

// Context is cancelled by the next signal.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Reset drops the current context and arms a new one.
func (sm *SignalManager) Reset() {
	sm.Stop()
	sm.ctx, sm.cancel = sm.arm(sm.parent)
}

// Stop cancels the current context and stops listening.
func (sm *SignalManager) Stop() {
	if sm.cancel != nil {
		sm.cancel()
	}
}

// Settle gives a pending signal up to signalGrace to land. Some terminals
// report EOF on stdin just before delivering the interrupt.
func (sm *SignalManager) Settle() {
	t := time.NewTimer(signalGrace)
	defer t.Stop()
	select {
	case <-sm.ctx.Done():
	case <-t.C:
	}
}
