package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

// Engine is what the chat loop needs from the engine. *cinebrain.Engine
// implements it.
type Engine interface {
	Send(ctx context.Context, sessionID, message string) (*domain.Outcome, error)
	Inspect(ctx context.Context, sessionID string) (*domain.Checkpoint, error)
}

// SessionManager resolves the session a chat attaches to.
type SessionManager struct {
	Engine Engine
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(engine Engine) *SessionManager {
	return &SessionManager{Engine: engine}
}

// Attach returns the session id to use and, for a stored session, the outcome
// of its last turn so a pending plan review can be shown again. An empty
// sessionID starts a fresh session.
func (sm *SessionManager) Attach(ctx context.Context, sessionID string) (string, *domain.Outcome, error) {
	if sessionID == "" {
		return uuid.NewString(), nil, nil
	}
	cp, err := sm.Engine.Inspect(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return sessionID, nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return sessionID, domain.NewOutcome(cp), nil
}
