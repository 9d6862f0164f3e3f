package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/retail-cockpit/cockpit/internal/access"
	analytichttp "github.com/retail-cockpit/cockpit/internal/analytics/http"
	"github.com/retail-cockpit/cockpit/internal/directory"
	"github.com/retail-cockpit/cockpit/internal/observability"
	"github.com/retail-cockpit/cockpit/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Access           access.Middleware
	DirectoryHandler *directory.Handler
	AnalyticsHandler *analytichttp.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with cockpit defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(params.Access.Authenticate)
		if params.AnalyticsHandler != nil {
			params.AnalyticsHandler.MountRoutes(r)
		}
		if params.DirectoryHandler != nil {
			params.DirectoryHandler.MountRoutes(r)
		}
		if params.JobHandler != nil {
			r.With(params.Access.RequireAll(access.CanViewAll)).Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
