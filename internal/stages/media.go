package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
)

type media struct {
	kind ports.MediaKind
	deps Deps
}

// Run enhances the latest request into a generation prompt and synthesizes the media.
// Failures are reported to the user and do not end the session.
func (st *media) Run(ctx context.Context, s domain.ConversationState) (domain.Result, error) {
	request, ok := s.LatestHumanSince(0)
	if !ok || strings.TrimSpace(request.Content) == "" {
		return domain.Next(domain.Update{Messages: say(fmt.Sprintf("Tell me what the %s should show.", st.kind))}), nil
	}

	log := st.deps.logger().With("session_id", s.SessionID, "kind", string(st.kind))
	var notes []string

	prompt, err := st.enhance(ctx, request.Content)
	if err != nil {
		log.Warn("prompt enhancement failed", "error", err)
		notes = append(notes, fmt.Sprintf("%s prompt enhancement unavailable: %v", st.kind, err))
		prompt = request.Content
	}

	path, err := st.synthesize(ctx, s.SessionID, prompt)
	if err != nil {
		log.Warn("media synthesis failed", "error", err)
		notes = append(notes, fmt.Sprintf("%s synthesis failed: %v", st.kind, err))
		return domain.Next(domain.Update{
			Messages:     say(fmt.Sprintf("I couldn't create the %s: %v", st.kind, err)),
			Observations: notes,
		}), nil
	}

	u := domain.Update{
		Messages:     say(fmt.Sprintf("Your %s is ready: %s", st.kind, path)),
		Observations: append(notes, fmt.Sprintf("%s written to %s", st.kind, path)),
	}
	switch st.kind {
	case ports.MediaVideo:
		u.VideoPath = domain.Ptr(path)
	case ports.MediaAudio:
		u.AudioPath = domain.Ptr(path)
	}
	return domain.Next(u), nil
}

func (st *media) enhance(ctx context.Context, request string) (string, error) {
	if st.deps.Generator == nil {
		return "", domain.ErrCapabilityUnavailable
	}
	prompt, err := render(mediaTmpl, map[string]any{"Kind": string(st.kind), "Request": request})
	if err != nil {
		return "", err
	}
	gen, err := st.deps.Generator.Generate(ctx, ports.GenerateRequest{Purpose: string(st.kind) + "_prompt", Prompt: prompt})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(gen.Text)
	if text == "" {
		return "", fmt.Errorf("empty prompt")
	}
	return text, nil
}

func (st *media) synthesize(ctx context.Context, sessionID, prompt string) (string, error) {
	if st.deps.Media == nil {
		return "", domain.ErrCapabilityUnavailable
	}
	return st.deps.Media.Synthesize(ctx, ports.MediaRequest{Kind: st.kind, SessionID: sessionID, Prompt: prompt})
}
