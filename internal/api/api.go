// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/intake/internal/config"
	"github.com/JaimeStill/intake/internal/infrastructure"
	"github.com/JaimeStill/intake/pkg/middleware"
	"github.com/JaimeStill/intake/pkg/module"
	"github.com/JaimeStill/intake/pkg/ratelimit"
)

// NewModule creates the API module with all domain handlers and middleware.
// Every API route shares the general rate limit; submission creation is
// additionally bound by the submission limit.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(runtime, &cfg.Notify)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, cfg, runtime); err != nil {
		return nil, err
	}

	general := ratelimit.New("general", cfg.API.RateLimits.General.Rule(), runtime.RateLimits)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.RateLimit(general, runtime.TrustProxy, runtime.Logger))

	return m, nil
}
