// Package capability wraps external capabilities so that no call can block a
// run indefinitely: every call gets a deadline, and a missed deadline surfaces
// as domain.ErrCapabilityUnavailable.
package capability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
)

// call runs fn under a deadline of d. A backend that ignores its context is
// abandoned once the deadline passes; its late result is discarded.
func call[T any](ctx context.Context, d time.Duration, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if d <= 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) {
			return zero, unavailable(op, d, r.err)
		}
		return r.v, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, unavailable(op, d, ctx.Err())
		}
		return zero, ctx.Err()
	}
}

func unavailable(op string, d time.Duration, cause error) error {
	return &domain.TransientError{
		Op:  op,
		Err: fmt.Errorf("no answer within %s: %w (%w)", d, domain.ErrCapabilityUnavailable, cause),
	}
}

type generator struct {
	next    ports.Generator
	timeout time.Duration
}

// Generator bounds every Generate call by timeout.
func Generator(g ports.Generator, timeout time.Duration) ports.Generator {
	return &generator{next: g, timeout: timeout}
}

func (g *generator) Generate(ctx context.Context, req ports.GenerateRequest) (*ports.Generation, error) {
	return call(ctx, g.timeout, "generate "+req.Purpose, func(ctx context.Context) (*ports.Generation, error) {
		return g.next.Generate(ctx, req)
	})
}

type classifier struct {
	next    ports.Classifier
	timeout time.Duration
}

// Classifier bounds every Classify call by timeout. A failed call reports
// domain.RouteTerminal with its error.
func Classifier(c ports.Classifier, timeout time.Duration) ports.Classifier {
	return &classifier{next: c, timeout: timeout}
}

func (c *classifier) Classify(ctx context.Context, s domain.ConversationState) (domain.Route, error) {
	route, err := call(ctx, c.timeout, "classify", func(ctx context.Context) (domain.Route, error) {
		return c.next.Classify(ctx, s)
	})
	if err != nil {
		return domain.RouteTerminal, err
	}
	return route, nil
}

type memory struct {
	next    ports.MemoryService
	timeout time.Duration
}

// Memory bounds every memory service call by timeout.
func Memory(m ports.MemoryService, timeout time.Duration) ports.MemoryService {
	return &memory{next: m, timeout: timeout}
}

func (m *memory) Extract(ctx context.Context, userID, text string) (string, error) {
	return call(ctx, m.timeout, "memory extract", func(ctx context.Context) (string, error) {
		return m.next.Extract(ctx, userID, text)
	})
}

func (m *memory) Store(ctx context.Context, userID string, entries []string) error {
	_, err := call(ctx, m.timeout, "memory store", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.next.Store(ctx, userID, entries)
	})
	return err
}

type steps struct {
	next    ports.StepExecutor
	timeout time.Duration
}

// Steps bounds every step execution by timeout (the team timeout).
func Steps(s ports.StepExecutor, timeout time.Duration) ports.StepExecutor {
	return &steps{next: s, timeout: timeout}
}

func (s *steps) ExecuteStep(ctx context.Context, task ports.StepTask) (string, error) {
	return call(ctx, s.timeout, "step "+task.Step.Title, func(ctx context.Context) (string, error) {
		return s.next.ExecuteStep(ctx, task)
	})
}

type media struct {
	next    ports.MediaGenerator
	timeout time.Duration
}

// Media bounds every synthesis call by timeout.
func Media(m ports.MediaGenerator, timeout time.Duration) ports.MediaGenerator {
	return &media{next: m, timeout: timeout}
}

func (m *media) Synthesize(ctx context.Context, req ports.MediaRequest) (string, error) {
	return call(ctx, m.timeout, "synthesize "+string(req.Kind), func(ctx context.Context) (string, error) {
		return m.next.Synthesize(ctx, req)
	})
}
