package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whitehatjr1001/cine-brain/pkg/adapters/memory"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

func TestManager_LocksAreReleased(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("film-%d", i%20)
			_ = mgr.WithLock(ctx, id, func(ctx context.Context) error {
				return mgr.Store().Save(ctx, &domain.Checkpoint{SessionID: id, Status: domain.CheckpointCompleted})
			})
			_, _ = mgr.Load(ctx, id)
		}(i)
	}
	wg.Wait()

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 20)
	for _, id := range ids {
		require.NoError(t, mgr.Delete(ctx, id))
	}

	assert.Zero(t, mgr.local.size(), "no lock entry outlives its last holder")
}
