package routes

import (
	"net/http"

	"github.com/JaimeStill/intake/pkg/openapi"
)

// Route binds an HTTP method and pattern to a handler. Middleware wraps only
// this route, outermost first. OpenAPI, when set, documents the operation.
type Route struct {
	Method     string
	Pattern    string
	Handler    http.HandlerFunc
	Middleware []func(http.Handler) http.Handler
	OpenAPI    *openapi.Operation
}

func (r Route) handler() http.Handler {
	var h http.Handler = r.Handler
	for i := len(r.Middleware) - 1; i >= 0; i-- {
		h = r.Middleware[i](h)
	}
	return h
}
