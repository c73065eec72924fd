package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bizray/registry-cli/internal/cache"
	"github.com/bizray/registry-cli/internal/risk"
	"github.com/bizray/registry-cli/internal/store"
	"github.com/bizray/registry-cli/pkg/firmenbuch"
)

// appEnv holds the initialized store, cache, document client and risk
// service shared by the serve/risk/import commands.
type appEnv struct {
	Store store.Store
	Cache cache.Store
	Docs  firmenbuch.Client
	Risk  *risk.Service
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Cache != nil {
		_ = e.Cache.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv sets up the store, cache and clients. Callers should defer
// env.Close(). A failing cache is downgraded to a no-op cache so lookups
// keep working without Redis.
func initEnv(ctx context.Context) (*appEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	var c cache.Store = cache.Noop{}
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedis(ctx, cfg.Cache)
		if err != nil {
			zap.L().Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			c = redisCache
		}
	}

	var opts []firmenbuch.Option
	if cfg.Registry.BaseURL != "" {
		opts = append(opts, firmenbuch.WithBaseURL(cfg.Registry.BaseURL))
	}
	if cfg.Registry.RequestsPerSecond > 0 {
		opts = append(opts, firmenbuch.WithRateLimit(cfg.Registry.RequestsPerSecond))
	}
	docs := firmenbuch.NewClient(cfg.Registry.APIKey, opts...)

	engine := risk.NewEngine(c, time.Duration(cfg.Risk.CacheTTLHours)*time.Hour)

	return &appEnv{
		Store: st,
		Cache: c,
		Docs:  docs,
		Risk:  risk.NewService(docs, st, engine),
	}, nil
}

// initStore opens the configured store backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		poolCfg := &store.PoolConfig{
			MaxConns: cfg.Store.Pool.MaxConns,
			MinConns: cfg.Store.Pool.MinConns,
		}
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, poolCfg)
		if err != nil {
			return nil, eris.Wrap(err, "init postgres store")
		}
		return st, nil
	case "sqlite":
		st, err := store.NewSQLite(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "init sqlite store")
		}
		return st, nil
	default:
		return nil, eris.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}
