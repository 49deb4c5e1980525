package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/crumbtrail/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTrailStoreContract runs a suite of tests to verify that a TrailStore implementation
// adheres to the defined interface contract.
func RunTrailStoreContract(t *testing.T, store TrailStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		trail := domain.NewTrail(sessionID)
		trail.Push("/a", 1, "Home", domain.Meta{Action: "index", Controller: "home"})
		trail.Push("/a/b", 2, "", domain.Meta{})

		err := store.Save(ctx, sessionID, trail)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.SessionID)
		assert.Equal(t, trail.Crumbs, loaded.Crumbs)
		assert.Equal(t, "/a/b", loaded.CurrentURL())
		assert.Equal(t, trail.NextSeq, loaded.NextSeq)
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Push("/elsewhere", 1, "", domain.Meta{})

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, []string{"/a", "/a/b"}, again.OrderedURLs())
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewTrail(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Delete of unknown session should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewTrail(id1))
		_ = store.Save(ctx, id2, domain.NewTrail(id2))

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
