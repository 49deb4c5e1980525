package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/crumbtrail/pkg/domain"
	"github.com/aretw0/crumbtrail/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "db", "trails.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	ports.RunTrailStoreContract(t, openTestStore(t))
}

func TestSQLiteStore_TTL(t *testing.T) {
	store := openTestStore(t, WithTTL(time.Minute))
	ctx := context.Background()

	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	require.NoError(t, store.Save(ctx, "s1", domain.NewTrail("s1")))
	_, err := store.Load(ctx, "s1")
	require.NoError(t, err)

	clock = clock.Add(2 * time.Minute)

	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSQLiteStore_Upsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	trail := domain.NewTrail("s1")
	trail.Push("/a", 1, "", domain.Meta{})
	require.NoError(t, store.Save(ctx, "s1", trail))

	trail.Push("/a/b", 2, "", domain.Meta{})
	require.NoError(t, store.Save(ctx, "s1", trail))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/a/b"}, loaded.OrderedURLs())

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, sessions)
}
