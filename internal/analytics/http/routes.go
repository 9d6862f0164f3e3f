package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/retail-cockpit/cockpit/internal/access"
)

// MountRoutes registers dashboard endpoints onto the router. Callers must
// authenticate first.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)
	viewer := h.guard.RequireAny(access.CanViewOwnSales, access.CanViewBranch, access.CanViewRegion, access.CanViewAll)

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(viewer)
		r.Get("/summary", h.handleSummary)
		r.Get("/lfl", h.handleLFL)
		r.Get("/trend.svg", h.handleTrendSVG)
		r.Group(func(gr chi.Router) {
			gr.Use(limiter)
			gr.Get("/export.csv", h.handleCSV)
			gr.Get("/export.xlsx", h.handleXLSX)
		})
		if h.provider != nil {
			r.With(h.guard.RequireAll(access.CanViewAll)).Get("/sources", h.handleSources)
		}
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if profile := access.ProfileFromContext(r.Context()); profile != nil && profile.ID != "" {
		return "user:" + profile.ID, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
