package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JaimeStill/intake/internal/config"
	"github.com/JaimeStill/intake/internal/submissions"
	"github.com/JaimeStill/intake/pkg/handlers"
	"github.com/JaimeStill/intake/pkg/middleware"
	"github.com/JaimeStill/intake/pkg/openapi"
	"github.com/JaimeStill/intake/pkg/ratelimit"
	"github.com/JaimeStill/intake/pkg/routes"
)

var errRouteNotFound = errors.New("route not found")

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) error {
	limiter := ratelimit.New("submissions", cfg.API.RateLimits.Submissions.Rule(), runtime.RateLimits)

	groups := []routes.Group{
		domain.Submissions.Handler(runtime.TrustProxy).Routes(
			middleware.RateLimit(limiter, runtime.TrustProxy, runtime.Logger),
		),
	}

	routes.Register(mux, groups...)

	spec, err := buildSpec(cfg, groups...)
	if err != nil {
		return err
	}

	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(spec))
	mux.HandleFunc("GET /{$}", discoveryHandler(cfg))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondError(w, runtime.Logger, http.StatusNotFound, errRouteNotFound)
	})

	return nil
}

func buildSpec(cfg *config.Config, groups ...routes.Group) ([]byte, error) {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.Components.AddSchemas(submissions.Schemas())

	routes.Document(spec, cfg.API.BasePath, groups...)

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, fmt.Errorf("marshal openapi spec: %w", err)
	}
	return data, nil
}
