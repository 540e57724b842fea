// Package httptransport assembles the public HTTP surface: middleware chain,
// feature handler registration, and operational endpoints.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"civica/internal/platform/middleware"
)

// Registrar mounts a feature's endpoints on the router.
type Registrar interface {
	Register(r chi.Router)
}

// Options configures router assembly.
type Options struct {
	// Validator authenticates bearer tokens. All API routes sit behind it.
	Validator middleware.TokenValidator
	// Handlers are the feature handlers to mount under the API group.
	Handlers []Registrar
	Logger   *slog.Logger
}

// NewRouter wires middleware, operational endpoints, and feature handlers.
// Health and metrics stay outside the auth boundary.
func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Group(func(api chi.Router) {
		if opts.Validator != nil {
			api.Use(middleware.RequireAuth(opts.Validator, logger))
		}
		for _, h := range opts.Handlers {
			h.Register(api)
		}
	})

	return r
}
