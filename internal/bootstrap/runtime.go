// Package bootstrap wires durable storage, Redis and the domain services into
// one Runtime shared by the server and the command line tools.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bulletin/internal/cache"
	"bulletin/internal/clock"
	"bulletin/internal/config"
	"bulletin/internal/conversation"
	"bulletin/internal/database"
	"bulletin/internal/dispatch"
	"bulletin/internal/engagement"
	"bulletin/internal/featureflags"
	"bulletin/internal/middleware"
	"bulletin/internal/moderation"
	"bulletin/internal/notifications"
	"bulletin/internal/seed"
	"bulletin/internal/store"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills a freshly created board with demo content.
	SeedDemo bool
}

// Runtime holds every long-lived dependency of the process.
type Runtime struct {
	Config        *config.Config
	DB            *gorm.DB // nil with DB_DRIVER=memory
	Redis         *redis.Client
	Store         *store.Store
	Clock         clock.Clock
	Moderation    *moderation.Service
	Ledger        *engagement.Ledger
	Conversations *conversation.Engine
	Flags         *featureflags.Manager
	Notifier      *notifications.Notifier
	Dispatcher    *dispatch.Dispatcher
}

// InitRuntime connects to the configured database and Redis, opens the store
// and builds the services on top of it.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	var (
		db      *gorm.DB
		backend store.Backend
	)
	if cfg.DBDriver == "memory" {
		backend = store.NewMemoryBackend()
		middleware.Logger.Warn("DB_DRIVER=memory, state is lost on exit")
	} else {
		var err error
		db, err = database.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		backend = store.NewGormBackend(db)
	}

	// Redis may be nil when unreachable; notifications are then dropped.
	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()

	rt, err := NewRuntime(ctx, cfg, db, rdb, backend, clock.System{})
	if err != nil {
		closeDB(db)
		return nil, err
	}

	if opts.SeedDemo && rt.Store.LoadResult().Status != store.LoadOK {
		if _, err := seed.Demo(ctx, rt.Moderation, rt.Ledger, seed.DefaultOptions()); err != nil {
			_ = rt.Close(ctx)
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return rt, nil
}

// NewRuntime builds a Runtime from already-initialized dependencies.
// Tests use it with a memory backend and miniredis.
func NewRuntime(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, backend store.Backend, clk clock.Clock) (*Runtime, error) {
	st, err := store.Open(ctx, backend, cfg.AdminID)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	rt := &Runtime{
		Config:        cfg,
		DB:            db,
		Redis:         rdb,
		Store:         st,
		Clock:         clk,
		Moderation:    moderation.NewService(st, clk, moderation.WithComplaintBanDays(cfg.ComplaintBanDays)),
		Ledger:        engagement.NewLedger(st, clk),
		Conversations: conversation.NewEngine(),
		Flags:         featureflags.NewManager(cfg.FeatureFlags),
		Notifier:      notifications.NewNotifier(rdb),
	}
	rt.Dispatcher = dispatch.New(rt.Moderation, rt.Ledger, rt.Conversations, rt.Flags)

	middleware.Logger.InfoContext(ctx, "runtime ready",
		slog.String("backend", backend.Name()),
		slog.String("load_status", string(st.LoadResult().Status)),
		slog.Bool("redis", rdb != nil),
	)
	return rt, nil
}

// Close flushes the store, then releases the database and Redis.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if err := rt.Store.Close(ctx); err != nil && !errors.Is(err, store.ErrClosed) {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	if rt.DB != nil {
		if sqlDB, err := rt.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			}
		}
	}
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

func closeDB(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
