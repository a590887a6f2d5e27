package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"authgate/internal/config"
	"authgate/internal/container"
	"authgate/internal/handler"
	"authgate/internal/middleware"
	"authgate/pkg/database"
	"authgate/pkg/errors"
	"authgate/pkg/logger"
	"authgate/pkg/redis"
)

// Resources holds all resources that need cleanup
type Resources struct {
	db          *database.PostgresDB
	redisClient *redis.Client
	server      *http.Server
	log         *logger.Logger
	mu          sync.Mutex
	closed      bool
}

// Cleanup gracefully closes all resources
func (r *Resources) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error

	r.log.Info("Starting graceful shutdown...")

	if r.server != nil {
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.WithError(err).Error("Failed to shutdown HTTP server")
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			r.log.WithError(err).Error("Failed to close Redis connection")
			errs = append(errs, fmt.Errorf("Redis close: %w", err))
		}
	}

	if r.db != nil {
		r.db.Close()
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup completed with %d errors: %v", len(errs), errs)
	}

	r.log.Info("Graceful shutdown completed")
	return nil
}

func main() {
	// Fail-closed: configuration problems abort before any connection is
	// accepted.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithFields(map[string]interface{}{
		"port":        cfg.Port,
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
	}).Info("Starting auth gateway")

	ctx := context.Background()
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	redisClient, err := redis.NewClient(cfg.RedisURL, log.Logger)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}

	c, err := container.New(cfg, log, db, redisClient)
	if err != nil {
		log.WithError(err).Fatal("Failed to create container")
	}

	router := setupRouter(c, redisClient)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	resources := &Resources{
		db:          db,
		redisClient: redisClient,
		server:      server,
		log:         log,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := resources.Cleanup(cleanupCtx); err != nil {
			log.WithError(err).Error("Cleanup completed with errors")
		}
	}()

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Server starting on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErrChan:
		log.WithError(err).Error("Server failed, initiating shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := resources.Cleanup(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown completed with errors")
		os.Exit(1)
	}
}

// setupRouter configures and returns the HTTP router. Middleware order is the
// security pipeline: body cap, compression, security headers, then the three
// rate limiter scopes on their route groups.
func setupRouter(c *container.Container, redisClient *redis.Client) *chi.Mux {
	cfg := c.Config
	log := c.Logger

	globalLimiter := middleware.NewRateLimiter(redisClient, log, "global",
		cfg.RateLimitGlobal, cfg.RateLimitWindow, "Too many requests, try again later")
	authLimiter := middleware.NewRateLimiter(redisClient, log, "auth",
		cfg.RateLimitAuth, cfg.RateLimitWindow, "Too many auth attempts, try again later")
	adminLimiter := middleware.NewRateLimiter(redisClient, log, "admin",
		cfg.RateLimitAdmin, cfg.RateLimitWindow, "Too many admin requests, try again later")

	r := chi.NewRouter()

	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(log))
	r.Use(middleware.BodyLimit(cfg.BodyLimit))
	r.Use(chiMiddleware.Compress(5))
	r.Use(middleware.SecurityHeaders(cfg.ContentSecurityPolicy))
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(globalLimiter.Middleware())

	healthHandler := handler.NewHealthHandler(c)
	authHandler := handler.NewAuthHandler(c)
	serviceHandler := handler.NewServiceHandler(c)
	adminHandler := handler.NewAdminHandler(c)
	staticHandler := handler.NewStaticHandler(c)

	r.Get("/health", healthHandler.Check)

	r.Route("/auth", func(r chi.Router) {
		r.Use(authLimiter.Middleware())

		r.Get("/status", authHandler.Status)
		r.Get("/logout", authHandler.Logout)
		r.Post("/logout", authHandler.Logout)
		r.Get("/{provider}", authHandler.Initiate)
		r.Get("/{provider}/callback", authHandler.Callback)
	})

	r.Route("/service", func(r chi.Router) {
		r.Use(middleware.RequireSession(c.Sessions, c.Store, log))

		r.Get("/core", serviceHandler.Core)
		r.Get("/{name}", serviceHandler.Module)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(adminLimiter.Middleware())

		r.Get("/users", adminHandler.ListUsers)
	})

	r.Get("/", staticHandler.Index)
	r.Get("/robots.txt", staticHandler.Robots)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteJSON(w, errors.NewNotFoundError("Not found"))
	})

	log.Info("Router configured")
	return r
}
