package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/crumbtrail/internal/logging"
	"github.com/aretw0/crumbtrail/pkg/domain"
	"github.com/aretw0/crumbtrail/pkg/ports"
)

// ErrSkipSave may be returned by an Update callback that left the trail
// unchanged. Update then returns without saving and without an error.
var ErrSkipSave = errors.New("skip save")

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.TrailStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.TrailStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Load retrieves an existing trail from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Trail, error) {
	var trail *domain.Trail
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		trail, err = m.store.Load(ctx, sessionID)
		return err
	})
	return trail, err
}

// Snapshot returns the session's trail, or an empty one when the session has
// no trail yet. Nothing is persisted.
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (*domain.Trail, error) {
	trail, err := m.Load(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.NewTrail(sessionID), nil
	}
	return trail, err
}

// LoadOrCreate loads the session's trail, creating and persisting an empty one
// if none exists. Concurrent first calls for one session yield one trail.
//
// The Tracker never needs it: Update is its get-or-create path and only saves
// once something was pushed. LoadOrCreate is for callers that must reserve a
// session before its first crumb.
func (m *Manager) LoadOrCreate(ctx context.Context, sessionID string) (*domain.Trail, error) {
	var trail *domain.Trail
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var (
			created bool
			err     error
		)
		trail, created, err = m.loadOrNew(ctx, sessionID)
		if err != nil || !created {
			return err
		}
		// Persist immediately to reserve the ID
		if err := m.store.Save(ctx, sessionID, trail); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		return nil
	})
	return trail, err
}

// Update runs fn on the session's trail inside the session's critical section
// and persists the result. The trail is created if it does not exist, so
// Update is the atomic get-or-create used by every mutation. When fn
// returns an error nothing is saved; ErrSkipSave is swallowed.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(*domain.Trail) error) (*domain.Trail, error) {
	var trail *domain.Trail
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		trail, _, err = m.loadOrNew(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := fn(trail); err != nil {
			if errors.Is(err, ErrSkipSave) {
				return nil
			}
			return err
		}
		return m.store.Save(ctx, sessionID, trail)
	})
	return trail, err
}

// Delete removes the session's trail from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying trail store.
func (m *Manager) Store() ports.TrailStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	if sessionID == "" {
		return domain.ErrMissingSessionID
	}

	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) loadOrNew(ctx context.Context, sessionID string) (*domain.Trail, bool, error) {
	trail, err := m.store.Load(ctx, sessionID)
	if err == nil {
		return trail, false, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, false, fmt.Errorf("failed to check session existence: %w", err)
	}
	return domain.NewTrail(sessionID), true, nil
}
