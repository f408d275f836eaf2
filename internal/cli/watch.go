package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

// Inspector reads session checkpoints.
type Inspector interface {
	Inspect(ctx context.Context, sessionID string) (*domain.Checkpoint, error)
}

// Watch polls a session and writes one JSON state diff whenever its
// checkpoint changes, until ctx is done. A session that does not exist yet is waited for.
func Watch(ctx context.Context, store Inspector, sessionID string, interval time.Duration, w io.Writer, logger *slog.Logger) error {
	if interval <= 0 {
		interval = time.Second
	}
	enc := json.NewEncoder(w)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *domain.ConversationState
	for {
		cp, err := store.Inspect(ctx, sessionID)
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("watch poll failed", "session_id", sessionID, "error", err)
		default:
			if diff := domain.Diff(last, &cp.State); diff != nil {
				if err := enc.Encode(diff); err != nil {
					return err
				}
			}
			state := cp.State
			last = &state
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
