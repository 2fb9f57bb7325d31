package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dialgraph/callflow/internal/logging"
	"github.com/dialgraph/callflow/pkg/domain"
	"github.com/dialgraph/callflow/pkg/ports"
)

// lockEntry holds the mutex and the reference count for one call ID.
type lockEntry struct {
	mu     sync.Mutex
	refs   int
	unlock ports.UnlockFunc
}

// Manager orchestrates session access, ensuring at most one in-flight
// read-modify-write per call ID. It uses reference counting to garbage
// collect unused locks.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking for multi-replica deployments.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLogger configures a logger for deferred-cleanup and lock-release
// events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a session Manager backed by the given store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must Lock entry.mu and call release(callID) after unlocking.
func (m *Manager) acquire(callID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[callID]
	if !exists {
		entry = &lockEntry{}
		m.locks[callID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(callID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[callID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, callID)
	}
}

// WithLock executes fn while holding the per-call lock. Nested WithLock
// calls for the same call ID from the same goroutine will deadlock; the
// engine runs one full turn inside a single WithLock scope instead.
func (m *Manager) WithLock(ctx context.Context, callID string, fn func(context.Context) error) error {
	entry := m.acquire(callID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(callID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, callID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"call_id", callID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Get returns the session for the call, synthesizing a fresh greeting-stage
// session when the call is unknown. It only fails when the store itself is
// unavailable.
func (m *Manager) Get(ctx context.Context, callID string) (*domain.CallSession, error) {
	var sess *domain.CallSession
	err := m.WithLock(ctx, callID, func(ctx context.Context) error {
		var err error
		sess, err = m.load(ctx, callID)
		return err
	})
	return sess, err
}

// load fetches or synthesizes a session. Callers must hold the call lock.
func (m *Manager) load(ctx context.Context, callID string) (*domain.CallSession, error) {
	sess, err := m.store.Load(ctx, callID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.NewCallSession(callID, ""), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, nil
}

// Put replaces the stored session, stamping LastUpdated. The write is
// visible to subsequent Get calls for the same ID.
func (m *Manager) Put(ctx context.Context, callID string, sess *domain.CallSession) error {
	return m.WithLock(ctx, callID, func(ctx context.Context) error {
		return m.save(ctx, callID, sess)
	})
}

// save persists a session. Callers must hold the call lock.
func (m *Manager) save(ctx context.Context, callID string, sess *domain.CallSession) error {
	sess.LastUpdated = time.Now().UTC()
	if err := m.store.Save(ctx, callID, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, callID string) error {
	return m.WithLock(ctx, callID, func(ctx context.Context) error {
		return m.store.Delete(ctx, callID)
	})
}

// DeleteAfter schedules session reclamation after a grace window. The delay
// absorbs duplicate or late provider retries that reference an already ended
// call. The returned timer may be stopped to cancel the cleanup.
func (m *Manager) DeleteAfter(callID string, grace time.Duration) *time.Timer {
	return time.AfterFunc(grace, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.Delete(ctx, callID); err != nil {
			m.logger.Warn("deferred session cleanup failed", "call_id", callID, "err", err)
		}
	})
}

// Update runs one atomic read-modify-write cycle: it loads (or synthesizes)
// the session, applies fn, and persists the result when fn asks for it.
// This is the engine's workhorse; the whole turn runs under the call lock.
func (m *Manager) Update(ctx context.Context, callID string, fn func(*domain.CallSession) (persist bool, err error)) error {
	return m.WithLock(ctx, callID, func(ctx context.Context) error {
		sess, err := m.load(ctx, callID)
		if err != nil {
			return err
		}
		persist, err := fn(sess)
		if err != nil {
			return err
		}
		if persist {
			return m.save(ctx, callID, sess)
		}
		return nil
	})
}
