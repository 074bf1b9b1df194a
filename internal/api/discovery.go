package api

import (
	"net/http"

	"github.com/JaimeStill/intake/internal/config"
	"github.com/JaimeStill/intake/pkg/handlers"
)

type discovery struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	Version       string         `json:"version"`
	Endpoints     discoveryPaths `json:"endpoints"`
	Documentation string         `json:"documentation"`
}

type discoveryPaths struct {
	Health      string            `json:"health"`
	OpenAPI     string            `json:"openapi"`
	Submissions map[string]string `json:"submissions"`
}

// discoveryHandler describes the API surface at the module root.
func discoveryHandler(cfg *config.Config) http.HandlerFunc {
	base := cfg.API.BasePath
	subs := base + "/submissions"

	doc := discovery{
		Success: true,
		Message: cfg.API.OpenAPI.Title,
		Version: cfg.Version,
		Endpoints: discoveryPaths{
			Health:  "/health",
			OpenAPI: base + "/openapi.json",
			Submissions: map[string]string{
				"create":       "POST " + subs,
				"getAll":       "GET " + subs,
				"getById":      "GET " + subs + "/{id}",
				"getByEmail":   "GET " + subs + "/email/{email}",
				"downloadFile": "GET " + subs + "/files/{fileId}",
				"updateStatus": "PATCH " + subs + "/{id}/status",
				"delete":       "DELETE " + subs + "/{id}",
				"stats":        "GET " + subs + "/stats",
			},
		},
		Documentation: "Visit " + subs + " for submission endpoints",
	}

	return func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, doc)
	}
}
