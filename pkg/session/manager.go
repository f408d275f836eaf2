package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/whitehatjr1001/cine-brain/internal/logging"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
)

// DefaultLockTTL is used by WithLocker when no positive TTL is given.
const DefaultLockTTL = 30 * time.Second

// turnLocks hands out one mutex per session id. An entry lives only while
// some caller holds or waits on it.
type turnLocks struct {
	mu      sync.Mutex
	holders map[string]*turnLock
}

type turnLock struct {
	sync.Mutex
	waiters int
}

// lock blocks until the session's mutex is held and returns its release.
func (t *turnLocks) lock(id string) (unlock func()) {
	t.mu.Lock()
	l := t.holders[id]
	if l == nil {
		l = &turnLock{}
		t.holders[id] = l
	}
	l.waiters++
	t.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		t.mu.Lock()
		if l.waiters--; l.waiters == 0 {
			delete(t.holders, id)
		}
		t.mu.Unlock()
	}
}

func (t *turnLocks) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.holders)
}

// lease pairs a distributed locker with the TTL its locks are taken for.
type lease struct {
	locker ports.DistributedLocker
	ttl    time.Duration
}

// Manager serializes turns of one session and fronts the checkpoint store.
type Manager struct {
	store  ports.CheckpointStore
	local  turnLocks
	remote *lease
	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker also takes a distributed lock around every session access, so
// replicas sharing a store serialize too. A holder that outlives ttl loses
// exclusivity; ttl <= 0 means DefaultLockTTL.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(m *Manager) {
		if locker == nil {
			m.remote = nil
			return
		}
		if ttl <= 0 {
			ttl = DefaultLockTTL
		}
		m.remote = &lease{locker: locker, ttl: ttl}
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

// NewManager returns a Manager over store.
func NewManager(store ports.CheckpointStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		local:  turnLocks{holders: map[string]*turnLock{}},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// locked runs fn under the session lock and passes its result through.
func locked[T any](ctx context.Context, m *Manager, id string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

// Load reads the session's checkpoint.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	return locked(ctx, m, sessionID, func(ctx context.Context) (*domain.Checkpoint, error) {
		return m.store.Load(ctx, sessionID)
	})
}

// Save writes cp under its session's lock.
func (m *Manager) Save(ctx context.Context, cp *domain.Checkpoint) error {
	return m.WithLock(ctx, cp.SessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, cp)
	})
}

// Delete drops the session.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List returns every stored session id. It takes no lock.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store exposes the checkpoint store for use inside WithLock.
func (m *Manager) Store() ports.CheckpointStore {
	return m.store
}

// WithLock runs fn as the only holder of the session. fn must talk to Store()
// directly: calling back into the Manager for the same session deadlocks.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	unlock := m.local.lock(sessionID)
	defer unlock()

	if m.remote != nil {
		release, err := m.remote.locker.Lock(ctx, sessionID, m.remote.ttl)
		if err != nil {
			return fmt.Errorf("lock session %s: %w", sessionID, err)
		}
		defer m.releaseRemote(ctx, sessionID, release)
	}
	return fn(ctx)
}

func (m *Manager) releaseRemote(ctx context.Context, sessionID string, release ports.UnlockFunc) {
	if err := release(context.WithoutCancel(ctx)); err != nil {
		m.logger.Warn("distributed lock not released, it expires with its ttl",
			"session_id", sessionID, "ttl", m.remote.ttl, "err", err)
	}
}
