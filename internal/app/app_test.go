package app

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/crumbtrail/internal/config"
	"github.com/aretw0/crumbtrail/internal/logging"
	"github.com/aretw0/crumbtrail/pkg/adapters/memory"
	"github.com/aretw0/crumbtrail/pkg/adapters/redis"
	"github.com/aretw0/crumbtrail/pkg/adapters/sqlite"
	"github.com/aretw0/crumbtrail/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, cfg config.Config) *App {
	t.Helper()
	a, err := New(cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNew_Drivers(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		a := build(t, config.Default())
		assert.IsType(t, &memory.Store{}, a.Store)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.Default()
		cfg.Store.Driver = config.DriverRedis
		cfg.Store.RedisAddr = mr.Addr()
		cfg.Store.DistributedLock = true

		a := build(t, cfg)
		assert.IsType(t, &redis.Store{}, a.Store)

		_, err := a.Tracker.Add(context.Background(), "s1", "/a", "")
		require.NoError(t, err)
		assert.True(t, mr.Exists(cfg.Store.Prefix+"s1"))
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := config.Default()
		cfg.Store.Driver = config.DriverRedis
		cfg.Store.RedisAddr = addr
		_, err := New(cfg, logging.NewNop())
		assert.Error(t, err)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := config.Default()
		cfg.Store.Driver = config.DriverSQLite
		cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "trails.db")

		a := build(t, cfg)
		assert.IsType(t, &sqlite.Store{}, a.Store)

		_, err := a.Tracker.Add(context.Background(), "s1", "/a", "")
		require.NoError(t, err)
		ids, err := a.Store.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"s1"}, ids)
	})
}

func TestNew_HierarchyAndResources(t *testing.T) {
	dir := t.TempDir()
	routes := filepath.Join(dir, "routes.yaml")
	catalog := filepath.Join(dir, "labels.yaml")
	require.NoError(t, os.WriteFile(routes, []byte("routes:\n  - pattern: /dashboard\n    level: 5\n"), 0o600))
	require.NoError(t, os.WriteFile(catalog, []byte("Admin:\n  home: Start\n"), 0o600))

	cfg := config.Default()
	cfg.HierarchyFile = routes
	cfg.ResourcesFile = catalog
	a := build(t, cfg)

	ctx := context.Background()
	_, _ = a.Tracker.Add(ctx, "s1", "/dashboard", "")
	_, _ = a.Tracker.Add(ctx, "s1", "/x/y", "")
	urls, err := a.Tracker.OrderedURLs(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"/x/y", "/dashboard"}, urls)

	cfg.HierarchyFile = filepath.Join(dir, "missing.yaml")
	_, err = New(cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestNew_HooksFeedMetrics(t *testing.T) {
	a := build(t, config.Default())
	_, err := a.Tracker.Add(context.Background(), "s1", "/a", "")
	require.NoError(t, err)

	families, err := a.Metrics.Registry().Gather()
	require.NoError(t, err)
	var pushes float64
	for _, f := range families {
		if f.GetName() == "crumbtrail_pushes_total" {
			pushes = f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, pushes)
}

func TestNew_PrivacyMiddlewares(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	cfg := config.Default()
	cfg.Store.Driver = config.DriverSQLite
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "trails.db")
	cfg.Store.MaskQuery = []string{"token"}
	cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString(key)

	a := build(t, cfg)
	ctx := context.Background()
	_, err := a.Tracker.Add(ctx, "s1", "/login?token=abc", "Login")
	require.NoError(t, err)

	urls, err := a.Tracker.OrderedURLs(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"/login?token=%2A%2A%2A"}, urls)

	cfg.Store.EncryptionKey = "bm90LWEta2V5"
	_, err = New(cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestIdentity(t *testing.T) {
	cfg := config.Default()
	cfg.CookieName = "sid"
	a := build(t, cfg)

	id, ok := a.Identity().(middleware.CookieIdentity)
	require.True(t, ok)
	assert.Equal(t, "sid", id.Name)
}
