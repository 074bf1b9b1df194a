// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, cache, rate limit
// counters) that domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/intake/internal/config"
	"github.com/JaimeStill/intake/pkg/cache"
	"github.com/JaimeStill/intake/pkg/database"
	"github.com/JaimeStill/intake/pkg/lifecycle"
	"github.com/JaimeStill/intake/pkg/ratelimit"
	"github.com/JaimeStill/intake/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	// Cache is nil when no Redis address is configured.
	Cache cache.System
	// RateLimits counts requests for every limiter. It is Redis-backed when
	// Cache is set and in-memory otherwise.
	RateLimits ratelimit.Store
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
	}

	if cfg.Cache.Enabled() {
		infra.Cache = cache.New(&cfg.Cache, logger)
		infra.RateLimits = ratelimit.NewRedisStore(infra.Cache.Client(), logger)
	} else {
		infra.RateLimits = ratelimit.NewMemoryStore(cfg.API.RateLimits.SweepIntervalDuration(), logger)
	}

	return infra, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if i.Cache != nil {
		if err := i.Cache.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("cache start failed: %w", err)
		}
	}
	if err := i.RateLimits.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("rate limit store start failed: %w", err)
	}
	return nil
}
