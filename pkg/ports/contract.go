package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

// RunCheckpointStoreContract runs a suite of tests to verify that a CheckpointStore
// implementation adheres to the defined interface contract.
func RunCheckpointStoreContract(t *testing.T, store CheckpointStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	newCheckpoint := func(id string) *domain.Checkpoint {
		state := domain.NewState(id, "default_user")
		state.Messages = append(state.Messages, domain.Human("hello"))
		return &domain.Checkpoint{
			SessionID: id,
			State:     *state,
			Status:    domain.CheckpointCompleted,
			UpdatedAt: time.Now().UTC(),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		cp := newCheckpoint(sessionID)
		plan := domain.FallbackPlan("")
		cp.State.Plan = &plan
		cp.State.Observations = []string{"routed to conversation"}
		cp.Stage = "human_feedback"
		cp.Status = domain.CheckpointSuspended
		cp.Prompt = "approve?"

		require.NoError(t, store.Save(ctx, cp), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, cp.SessionID, loaded.SessionID)
		assert.Equal(t, cp.Stage, loaded.Stage)
		assert.Equal(t, cp.Status, loaded.Status)
		assert.Equal(t, cp.Prompt, loaded.Prompt)
		assert.Equal(t, cp.State.Messages, loaded.State.Messages)
		assert.Equal(t, cp.State.Observations, loaded.State.Observations)
		require.NotNil(t, loaded.State.Plan)
		assert.Equal(t, plan.Goal, loaded.State.Plan.Goal)
		assert.True(t, loaded.Suspended())
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		cp := newCheckpoint(sessionID)
		cp.State.FinalReport = "done"
		require.NoError(t, store.Save(ctx, cp))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, domain.CheckpointCompleted, loaded.Status)
		assert.Equal(t, "done", loaded.State.FinalReport)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newCheckpoint(sessionID)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, newCheckpoint(id1)))
		require.NoError(t, store.Save(ctx, newCheckpoint(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
