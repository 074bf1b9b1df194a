package main

import (
	"net/http"
	"time"

	"github.com/JaimeStill/intake/internal/api"
	"github.com/JaimeStill/intake/internal/config"
	"github.com/JaimeStill/intake/internal/infrastructure"
	"github.com/JaimeStill/intake/pkg/handlers"
	"github.com/JaimeStill/intake/pkg/module"
)

type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{
		API: apiModule,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

type health struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
}

type readiness struct {
	Status   string            `json:"status"`
	Failures map[string]string `json:"failures,omitempty"`
}

func buildRouter(infra *infrastructure.Infrastructure, cfg *config.Config) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /health", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, health{
			Success:     true,
			Message:     cfg.API.OpenAPI.Title + " is running",
			Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
			Environment: cfg.Env(),
		})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			body := readiness{Status: "not ready"}
			if failures := infra.Lifecycle.Failures(); len(failures) > 0 {
				body.Failures = make(map[string]string, len(failures))
				for name, err := range failures {
					body.Failures[name] = err.Error()
				}
			}
			handlers.RespondJSON(w, http.StatusServiceUnavailable, body)
			return
		}
		handlers.RespondJSON(w, http.StatusOK, readiness{Status: "ready"})
	})

	router.HandleNative("/", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusNotFound, handlers.Envelope{
			Success: false,
			Message: "Route not found: " + r.URL.Path,
		})
	})

	return router
}
