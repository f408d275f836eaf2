package ports

import (
	"context"

	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

// CheckpointStore defines the interface for persisting session checkpoints.
// This enables suspend and resume across process restarts.
type CheckpointStore interface {
	// Save persists the checkpoint for its session ID, replacing any previous one.
	Save(ctx context.Context, cp *domain.Checkpoint) error

	// Load retrieves the checkpoint for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error)

	// Delete removes the checkpoint for a given session ID.
	// Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
