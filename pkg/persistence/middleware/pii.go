package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
)

// Mask replaces redacted text.
const Mask = "***"

// EmailPattern matches e-mail addresses.
const EmailPattern = `[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`

type piiMiddleware struct {
	next     ports.CheckpointStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware returns a middleware that masks every match of patterns in
// the persisted conversation: messages, observations, memory context, summary
// and the suspension prompt. The in-memory state of the run is not touched.
func NewPIIMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redaction pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return func(next ports.CheckpointStore) ports.CheckpointStore {
		return &piiMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, cp *domain.Checkpoint) error {
	cloned := *cp
	cloned.State = cp.State.Clone()

	s := &cloned.State
	for i := range s.Messages {
		s.Messages[i].Content = m.mask(s.Messages[i].Content)
	}
	for i := range s.Observations {
		s.Observations[i] = m.mask(s.Observations[i])
	}
	s.MemoryContext = m.mask(s.MemoryContext)
	s.Summary = m.mask(s.Summary)
	s.PlanFeedback = m.mask(s.PlanFeedback)
	cloned.Prompt = m.mask(cloned.Prompt)

	return m.next.Save(ctx, &cloned)
}

func (m *piiMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
