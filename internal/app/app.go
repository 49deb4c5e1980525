// Package app assembles a Tracker and its collaborators from a Config.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/crumbtrail"
	"github.com/aretw0/crumbtrail/internal/config"
	httpAdapter "github.com/aretw0/crumbtrail/pkg/adapters/http"
	"github.com/aretw0/crumbtrail/pkg/adapters/memory"
	"github.com/aretw0/crumbtrail/pkg/adapters/redis"
	"github.com/aretw0/crumbtrail/pkg/adapters/sqlite"
	"github.com/aretw0/crumbtrail/pkg/domain"
	"github.com/aretw0/crumbtrail/pkg/hierarchy"
	"github.com/aretw0/crumbtrail/pkg/middleware"
	"github.com/aretw0/crumbtrail/pkg/observability"
	persistmw "github.com/aretw0/crumbtrail/pkg/persistence/middleware"
	"github.com/aretw0/crumbtrail/pkg/ports"
	"github.com/aretw0/crumbtrail/pkg/resource"
)

// App is a fully wired tracker.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Store   ports.TrailStore
	Tracker *crumbtrail.Tracker
	Metrics *observability.Metrics
	Streams *httpAdapter.StreamManager

	closers []func() error
}

// New opens the configured store and builds the tracker on top of it.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	var trackerOpts []crumbtrail.Option

	switch cfg.Store.Driver {
	case config.DriverMemory:
		a.Store = memory.NewStore()
	case config.DriverRedis:
		rs := redis.New(cfg.Store.RedisAddr, "", 0,
			redis.WithPrefix(cfg.Store.Prefix),
			redis.WithTTL(cfg.Store.TTL),
		)
		if err := rs.Client().Ping(context.Background()).Err(); err != nil {
			_ = rs.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.Store.RedisAddr, err)
		}
		a.Store = rs
		a.closers = append(a.closers, rs.Close)
		if cfg.Store.DistributedLock {
			trackerOpts = append(trackerOpts, crumbtrail.WithLocker(redis.NewLocker(rs.Client(), cfg.Store.Prefix)))
		}
	case config.DriverSQLite:
		ss, err := sqlite.Open(cfg.Store.SQLitePath, sqlite.WithTTL(cfg.Store.TTL))
		if err != nil {
			return nil, err
		}
		a.Store = ss
		a.closers = append(a.closers, ss.Close)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if err := a.wrapStore(); err != nil {
		_ = a.Close()
		return nil, err
	}

	var fallback ports.HierarchyProvider = hierarchy.PathDepth{}
	if cfg.HierarchyFile != "" {
		routes, err := hierarchy.LoadRoutesFile(cfg.HierarchyFile, fallback)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		trackerOpts = append(trackerOpts, crumbtrail.WithHierarchy(routes))
	}
	if cfg.ResourcesFile != "" {
		catalog, err := resource.LoadFile(cfg.ResourcesFile)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		trackerOpts = append(trackerOpts, crumbtrail.WithResourceLookup(catalog))
	}

	a.Metrics = observability.NewMetrics(nil)
	a.Streams = httpAdapter.NewStreamManager(logger)
	trackerOpts = append(trackerOpts,
		crumbtrail.WithLogger(logger),
		crumbtrail.WithHooks(domain.Join(a.Metrics.Hooks(), a.Streams.Hooks())),
	)

	a.Tracker = crumbtrail.New(a.Store, trackerOpts...)
	return a, nil
}

// wrapStore applies the configured persistence middlewares.
func (a *App) wrapStore() error {
	var mws []persistmw.Middleware
	if len(a.Config.Store.MaskQuery) > 0 {
		pii, err := persistmw.NewPIIMiddleware(a.Config.Store.MaskQuery)
		if err != nil {
			return err
		}
		mws = append(mws, pii)
	}
	if a.Config.Store.EncryptionKey != "" {
		key, err := persistmw.ParseKey(a.Config.Store.EncryptionKey)
		if err != nil {
			return fmt.Errorf("store encryption key: %w", err)
		}
		enc, err := persistmw.NewEncryptionMiddleware(persistmw.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return err
		}
		mws = append(mws, enc)
	}
	a.Store = persistmw.Chain(a.Store, mws...)
	return nil
}

// Identity returns the session identity configured for HTTP traffic.
func (a *App) Identity() ports.SessionIdentity {
	return middleware.CookieIdentity{Name: a.Config.CookieName, MaxAge: a.Config.Store.TTL}
}

// Close releases the store.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
