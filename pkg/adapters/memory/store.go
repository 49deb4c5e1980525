package memory

import (
	"context"
	"sync"

	"github.com/aretw0/crumbtrail/pkg/domain"
)

// Store implements ports.TrailStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Trail
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Trail),
	}
}

// Save persists a copy of the trail in memory.
func (s *Store) Save(ctx context.Context, sessionID string, trail *domain.Trail) error {
	copied := trail.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = copied
	return nil
}

// Load retrieves the trail from memory.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Trail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trail, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	// Copy on read so callers can't mutate stored crumbs through the pointer.
	return trail.Clone(), nil
}

// Delete removes the trail.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns active sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	return sessions, nil
}
