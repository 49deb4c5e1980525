package ports

import (
	"context"

	"github.com/aretw0/crumbtrail/pkg/domain"
)

// TrailStore defines the interface for persisting session trails.
type TrailStore interface {
	// Save persists the trail for a given session ID.
	Save(ctx context.Context, sessionID string, trail *domain.Trail) error

	// Load retrieves the trail for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Trail, error)

	// Delete removes the trail for a given session ID.
	// Deleting an unknown session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the stored sessions.
	List(ctx context.Context) ([]string, error)
}
