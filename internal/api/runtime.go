package api

import (
	"github.com/JaimeStill/intake/internal/config"
	"github.com/JaimeStill/intake/internal/infrastructure"
	"github.com/JaimeStill/intake/internal/submissions"
	"github.com/JaimeStill/intake/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination        pagination.Config
	Limits            submissions.UploadLimits
	UploadConcurrency int
	TrustProxy        bool
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle:  infra.Lifecycle,
			Logger:     infra.Logger.With("module", "api"),
			Database:   infra.Database,
			Storage:    infra.Storage,
			Cache:      infra.Cache,
			RateLimits: infra.RateLimits,
		},
		Pagination:        cfg.API.Pagination,
		Limits:            cfg.API.Uploads.Limits(),
		UploadConcurrency: cfg.API.Uploads.Concurrency,
		TrustProxy:        cfg.API.TrustProxy,
	}
}
