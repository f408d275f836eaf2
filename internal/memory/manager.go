// Package memory decides which user facts are worth keeping and recalls them as
// prompt context.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/whitehatjr1001/cine-brain/internal/logging"
	"github.com/whitehatjr1001/cine-brain/internal/structured"
	"github.com/whitehatjr1001/cine-brain/pkg/adapters/sqlite"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
)

// Backend persists and searches facts per user.
type Backend interface {
	Add(ctx context.Context, userID string, entries []string) error
	Search(ctx context.Context, userID, query string, limit int) ([]sqlite.Memory, error)
}

// Manager implements ports.MemoryService.
//
// Extract asks the generator whether the text reveals anything about the user
// and searches the backend with the reformulated fact. Store keeps only entries
// the generator marks as important, in their reformulated form.
type Manager struct {
	gen     ports.Generator
	backend Backend
	limit   int
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLimit caps how many memories Extract returns.
func WithLimit(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.limit = n
		}
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a manager. Without a generator every entry is treated as important.
func NewManager(gen ports.Generator, backend Backend, opts ...Option) *Manager {
	m := &Manager{gen: gen, backend: backend, limit: sqlite.DefaultLimit, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Extract returns one line per recalled memory, or "" when the text is not about the user.
func (m *Manager) Extract(ctx context.Context, userID, text string) (string, error) {
	analysis, err := m.analyze(ctx, text)
	if err != nil {
		return "", err
	}
	if !analysis.IsImportant || strings.TrimSpace(analysis.FormattedMemory) == "" {
		return "", nil
	}

	found, err := m.backend.Search(ctx, userID, analysis.FormattedMemory, m.limit)
	if err != nil {
		return "", fmt.Errorf("memory search: %w", err)
	}
	var b strings.Builder
	for _, mem := range found {
		b.WriteString(mem.Content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// Store analyzes each entry and persists the important ones.
func (m *Manager) Store(ctx context.Context, userID string, entries []string) error {
	var keep []string
	for _, e := range entries {
		analysis, err := m.analyze(ctx, e)
		if err != nil {
			return err
		}
		if analysis.IsImportant && strings.TrimSpace(analysis.FormattedMemory) != "" {
			keep = append(keep, analysis.FormattedMemory)
		}
	}
	if len(keep) == 0 {
		return nil
	}
	m.logger.Debug("storing memories", "user_id", userID, "count", len(keep))
	return m.backend.Add(ctx, userID, keep)
}

// Search exposes a direct lookup for the memory_search tool.
func (m *Manager) Search(ctx context.Context, userID, query string) ([]string, error) {
	found, err := m.backend.Search(ctx, userID, query, m.limit)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(found))
	for _, mem := range found {
		out = append(out, mem.Content)
	}
	return out, nil
}

func (m *Manager) analyze(ctx context.Context, text string) (structured.MemoryAnalysis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return structured.MemoryAnalysis{}, nil
	}
	if m.gen == nil {
		return structured.MemoryAnalysis{IsImportant: true, FormattedMemory: text}, nil
	}

	gen, err := m.gen.Generate(ctx, ports.GenerateRequest{
		Purpose: "memory_analysis",
		Prompt: "Decide whether the message reveals a lasting personal fact about the user " +
			"(name, preferences, projects, background). If it does, restate it as a short " +
			"third-person fact.\n\n# Message\n" + text,
		Schema: structured.MemoryAnalysisSchema.Raw(),
	})
	if err != nil {
		return structured.MemoryAnalysis{}, fmt.Errorf("memory analysis: %w", err)
	}
	return structured.Decode[structured.MemoryAnalysis](gen.Text, structured.MemoryAnalysisSchema)
}
