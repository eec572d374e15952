// Package server exposes the dispatcher to the transport collaborator as a
// small authenticated JSON webhook.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bulletin/internal/bootstrap"
	"bulletin/internal/config"
	"bulletin/internal/dispatch"
	"bulletin/internal/featureflags"
	"bulletin/internal/middleware"
	"bulletin/internal/models"
	"bulletin/internal/notifications"
	"bulletin/internal/store"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	runtime        *bootstrap.Runtime
	db             *gorm.DB
	redis          *redis.Client
	store          *store.Store
	dispatcher     *dispatch.Dispatcher
	notifier       *notifications.Notifier
	flags          *featureflags.Manager
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
}

// NewServer initializes the runtime from cfg and wraps it.
func NewServer(ctx context.Context, cfg *config.Config, opts bootstrap.Options) (*Server, error) {
	rt, err := bootstrap.InitRuntime(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, rt), nil
}

// NewServerWithDeps creates a Server around an already-initialized runtime.
// Tests use it with a memory backend.
func NewServerWithDeps(cfg *config.Config, rt *bootstrap.Runtime) *Server {
	return &Server{
		config:         cfg,
		runtime:        rt,
		db:             rt.DB,
		redis:          rt.Redis,
		store:          rt.Store,
		dispatcher:     rt.Dispatcher,
		notifier:       rt.Notifier,
		flags:          rt.Flags,
		promMiddleware: middleware.InitMetrics("bulletin"),
	}
}

// NewApp builds the fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Bulletin Webhook",
		BodyLimit: 256 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return respondError(c, code, models.CodeInternal, "Internal server error")
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	// after requestid and tracing so both ids reach the request context
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	events := app.Group("/api/v1/events",
		middleware.WebhookAuth(s.config.WebhookSecret),
		s.captureActor(),
		middleware.RateLimit(s.redis, s.config.RateLimitPerMinute, time.Minute, "events", middleware.FailOpen),
	)
	events.Post("/command", s.HandleCommand)
	events.Post("/callback", s.HandleCallback)
	events.Post("/message", s.HandleMessage)

	app.Get("/api/v1/feature-flags", middleware.WebhookAuth(s.config.WebhookSecret), s.GetFeatureFlags)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database health. Redis is optional: without it the
// board works but notifications are dropped.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "memory"
	if s.db != nil {
		dbStatus = "healthy"
		sqlDB, err := s.db.DB()
		if err != nil {
			dbStatus = "unhealthy"
		} else if err := sqlDB.PingContext(ctx); err != nil {
			dbStatus = "unhealthy"
		}
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database":      dbStatus,
			"redis":         redisStatus,
			"store_load":    string(s.store.LoadResult().Status),
			"conversations": s.runtime.Conversations.Open(),
		},
		"time": time.Now(),
	})
}

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests, then flushes the store and closes
// database and Redis connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}
	if err := s.runtime.Close(ctx); err != nil {
		return fmt.Errorf("close runtime: %w", err)
	}
	middleware.Logger.Info("Server shutdown complete")
	return nil
}
