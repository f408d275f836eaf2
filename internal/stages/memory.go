package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
)

type injectMemory struct {
	deps Deps
}

// Run looks up memories relevant to the recent conversation and overwrites memory_context.
// A failing memory service leaves the context empty.
func (st *injectMemory) Run(ctx context.Context, s domain.ConversationState) (domain.Result, error) {
	if st.deps.Memory == nil {
		return domain.Next(domain.Update{MemoryContext: domain.Ptr("")}), nil
	}

	recent := s.RecentContext(st.deps.recent())
	if strings.TrimSpace(recent) == "" {
		return domain.Next(domain.Update{MemoryContext: domain.Ptr("")}), nil
	}

	found, err := st.deps.Memory.Extract(ctx, st.deps.userID(s), recent)
	if err != nil {
		st.deps.logger().Warn("memory extraction failed", "session_id", s.SessionID, "error", err)
		return domain.Next(domain.Update{
			MemoryContext: domain.Ptr(""),
			Observations:  []string{fmt.Sprintf("memory unavailable: %v", err)},
		}), nil
	}
	return domain.Next(domain.Update{MemoryContext: domain.Ptr(found)}), nil
}

type storeMemory struct {
	deps Deps
}

// Run stores the latest human message and refreshes the conversation summary
// once the history is long enough.
func (st *storeMemory) Run(ctx context.Context, s domain.ConversationState) (domain.Result, error) {
	var u domain.Update

	if st.deps.Memory != nil {
		if msg, ok := s.LatestHumanSince(0); ok && strings.TrimSpace(msg.Content) != "" {
			if err := st.deps.Memory.Store(ctx, st.deps.userID(s), []string{msg.Content}); err != nil {
				st.deps.logger().Warn("memory store failed", "session_id", s.SessionID, "error", err)
				u.Observations = append(u.Observations, fmt.Sprintf("memory unavailable: %v", err))
			}
		}
	}

	limit := st.deps.Settings.SummarizeAfter
	if limit > 0 && len(s.Messages) > limit && st.deps.Generator != nil {
		summary, err := st.summarize(ctx, s, limit)
		if err != nil {
			st.deps.logger().Warn("summary refresh failed", "session_id", s.SessionID, "error", err)
			u.Observations = append(u.Observations, fmt.Sprintf("summary unavailable: %v", err))
		} else {
			u.Summary = domain.Ptr(summary)
		}
	}

	return domain.Next(u), nil
}

func (st *storeMemory) summarize(ctx context.Context, s domain.ConversationState, window int) (string, error) {
	prompt, err := render(summaryTmpl, map[string]any{
		"Summary": s.Summary,
		"History": history(s.Messages, window),
	})
	if err != nil {
		return "", err
	}
	gen, err := st.deps.Generator.Generate(ctx, ports.GenerateRequest{Purpose: "summary", Prompt: prompt})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(gen.Text)
	if text == "" {
		return "", fmt.Errorf("empty summary")
	}
	return text, nil
}
