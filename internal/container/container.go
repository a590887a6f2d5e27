package container

import (
	"fmt"

	"authgate/internal/config"
	"authgate/internal/provider"
	"authgate/internal/repository"
	"authgate/internal/session"
	"authgate/internal/token"
	"authgate/pkg/database"
	"authgate/pkg/logger"
	"authgate/pkg/redis"
)

// Container holds all application dependencies. Connections are opened and
// closed by main; the container only wires components together.
type Container struct {
	Config    *config.Config
	Logger    *logger.Logger
	Store     repository.UserStore
	Sessions  *session.Manager
	Minter    *token.Minter
	Providers *provider.Registry
}

// New creates a new dependency injection container
func New(cfg *config.Config, log *logger.Logger, db *database.PostgresDB, rdb *redis.Client) (*Container, error) {
	minter, err := token.NewMinter(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create token minter: %w", err)
	}

	registry := provider.NewRegistry()
	if cfg.Google.Configured() {
		registry.Register(provider.NewGoogle(cfg.Google))
	}
	if cfg.GitHub.Configured() {
		registry.Register(provider.NewGitHub(cfg.GitHub))
	}
	if len(registry.Names()) == 0 {
		log.Warn("No OAuth providers configured, all logins will fail")
	} else {
		log.WithField("providers", registry.Names()).Info("OAuth providers configured")
	}

	return &Container{
		Config:    cfg,
		Logger:    log,
		Store:     repository.NewUserRepository(db),
		Sessions:  session.NewManager(rdb, cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure),
		Minter:    minter,
		Providers: registry,
	}, nil
}
