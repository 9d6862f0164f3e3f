package sources

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// DefaultCutoffYear is the last year served by the snapshot.
const DefaultCutoffYear = 2025

// ErrSourceMissing is reported when the routed source is not configured.
var ErrSourceMissing = errors.New("sources: source not configured")

// Observer receives the outcome and latency of every routed request.
type Observer func(source string, success bool, elapsed time.Duration)

// Hybrid routes requests up to the cutoff year to the legacy source and
// later ones to the live source.
type Hybrid struct {
	legacy   Provider
	live     Provider
	cutoff   int
	logger   *slog.Logger
	observer Observer
}

// NewHybrid combines legacy and live. A non-positive cutoff selects
// DefaultCutoffYear.
func NewHybrid(legacy, live Provider, cutoff int, logger *slog.Logger) *Hybrid {
	if cutoff <= 0 {
		cutoff = DefaultCutoffYear
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hybrid{legacy: legacy, live: live, cutoff: cutoff, logger: logger}
}

// WithObserver installs fn as the outcome observer.
func (h *Hybrid) WithObserver(fn Observer) *Hybrid {
	h.observer = fn
	return h
}

// Route names the source serving year.
func (h *Hybrid) Route(year int) string {
	if year <= h.cutoff {
		return SourceLegacy
	}
	return SourceLive
}

// Metrics delegates to the routed source.
func (h *Hybrid) Metrics(ctx context.Context, req Request) Response {
	source := h.Route(req.Year)
	if err := req.Validate(); err != nil {
		return Failed(source, req, err)
	}
	provider := h.live
	if source == SourceLegacy {
		provider = h.legacy
	}
	if provider == nil {
		return Failed(source, req, ErrSourceMissing)
	}
	start := time.Now()
	resp := provider.Metrics(ctx, req)
	if h.observer != nil {
		h.observer(source, resp.Success, time.Since(start))
	}
	if !resp.Success {
		h.logger.WarnContext(ctx, "metrics source failed",
			slog.String("source", source),
			slog.String("request", req.Key()),
			slog.Any("notes", resp.Debug.Notes),
		)
	}
	return resp
}
