package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/retail-cockpit/cockpit/internal/access"
	"github.com/retail-cockpit/cockpit/internal/analytics"
	"github.com/retail-cockpit/cockpit/internal/analytics/export"
	"github.com/retail-cockpit/cockpit/internal/analytics/svg"
	"github.com/retail-cockpit/cockpit/internal/platform/httpx"
	"github.com/retail-cockpit/cockpit/internal/retail"
	"github.com/retail-cockpit/cockpit/internal/sources"
)

const requestTimeout = 10 * time.Second

// DashboardService defines the dashboard data contract used by the handler.
type DashboardService interface {
	Dashboard(ctx context.Context, profile *retail.Profile, f retail.DateFilter, sel access.Selection) (analytics.Result, error)
	LFL(ctx context.Context, profile *retail.Profile, req analytics.LFLRequest) (analytics.LFLComparison, error)
}

// Handler coordinates HTTP requests for the sales dashboard.
type Handler struct {
	logger   *slog.Logger
	service  DashboardService
	provider sources.Provider
	guard    access.Middleware
	validate *validator.Validate
	bufPool  sync.Pool
	now      func() time.Time
}

// NewHandler constructs the dashboard HTTP handler. provider may be nil, in
// which case the raw sources endpoint is not mounted.
func NewHandler(logger *slog.Logger, service DashboardService, provider sources.Provider) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:   logger,
		service:  service,
		provider: provider,
		guard:    access.Middleware{Logger: logger},
		validate: validator.New(),
		now:      time.Now,
	}
	h.bufPool.New = func() any { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	res, _, ok := h.loadSummary(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

// loadSummary parses the filters and runs the pipeline. It writes the error
// response itself and reports whether the caller may continue.
func (h *Handler) loadSummary(w http.ResponseWriter, r *http.Request) (analytics.Result, dashboardFilters, bool) {
	profile := access.ProfileFromContext(r.Context())
	if profile == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return analytics.Result{}, dashboardFilters{}, false
	}
	filters, err := h.parseFilters(r)
	if err != nil {
		h.handleFilterError(w, err)
		return analytics.Result{}, dashboardFilters{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.service.Dashboard(ctx, profile, filters.Date, filters.Selection)
	if err != nil {
		h.handleServerError(w, "load dashboard", err)
		return analytics.Result{}, dashboardFilters{}, false
	}
	return res, filters, true
}

func (h *Handler) handleLFL(w http.ResponseWriter, r *http.Request) {
	profile := access.ProfileFromContext(r.Context())
	if profile == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	req, err := parseLFL(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	cmp, err := h.service.LFL(ctx, profile, req)
	if err != nil {
		if errors.Is(err, analytics.ErrUnknownLFLKind) {
			h.handleFilterError(w, validationError{field: "kind"})
			return
		}
		h.handleServerError(w, "load lfl", err)
		return
	}
	httpx.JSON(w, http.StatusOK, cmp)
}

func (h *Handler) handleSources(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseSourceRequest(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	httpx.JSON(w, http.StatusOK, h.provider.Metrics(ctx, req))
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	res, filters, ok := h.loadSummary(w, r)
	if !ok {
		return
	}
	buf := h.buffer()
	defer h.release(buf)

	if err := export.WriteCSV(buf, export.Tables(res, filters.Label())); err != nil {
		h.handleServerError(w, "write csv", err)
		return
	}
	h.attach(w, buf, "text/csv; charset=utf-8", filters.Filename("csv"))
}

func (h *Handler) handleXLSX(w http.ResponseWriter, r *http.Request) {
	res, filters, ok := h.loadSummary(w, r)
	if !ok {
		return
	}
	buf := h.buffer()
	defer h.release(buf)

	if err := export.WriteXLSX(buf, export.Tables(res, filters.Label())); err != nil {
		h.handleServerError(w, "write xlsx", err)
		return
	}
	h.attach(w, buf, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", filters.Filename("xlsx"))
}

func (h *Handler) handleTrendSVG(w http.ResponseWriter, r *http.Request) {
	res, filters, ok := h.loadSummary(w, r)
	if !ok {
		return
	}
	points := make([]svg.Point, 0, len(res.Trend))
	for _, p := range res.Trend {
		points = append(points, svg.Point{Label: p.Name, Sales: p.Sales, Target: p.Target})
	}
	if len(points) == 0 {
		points = append(points, svg.Point{Label: filters.Label()})
	}
	chart, err := svg.Trend(points, svg.Options{Description: "Sales against target for " + filters.Label()})
	if err != nil {
		h.handleServerError(w, "render trend", err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write([]byte(chart)); err != nil {
		h.logError("stream svg", err)
	}
}

func (h *Handler) buffer() *bytes.Buffer {
	buf := h.bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func (h *Handler) release(buf *bytes.Buffer) {
	buf.Reset()
	h.bufPool.Put(buf)
}

func (h *Handler) attach(w http.ResponseWriter, buf *bytes.Buffer, contentType, filename string) {
	if err := httpx.Attachment(w, contentType, filename, buf.Bytes()); err != nil {
		h.logError("stream export", err)
	}
}

func (h *Handler) handleFilterError(w http.ResponseWriter, err error) {
	var vErr validationError
	if errors.As(err, &vErr) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", vErr.Error())
		return
	}
	h.handleServerError(w, "parse filters", err)
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	httpx.RespondError(w, err)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

type validationError struct {
	field string
}

func (v validationError) Error() string {
	return fmt.Sprintf("invalid %s", v.field)
}

// Label names the selected period in exports, e.g. "2025-06" or "2025".
func (f dashboardFilters) Label() string {
	year, hasYear := f.Date.Year.Value()
	month, hasMonth := f.Date.Month.Value()
	switch {
	case f.Date.Mode() == "custom":
		return strings.TrimPrefix(f.Date.String(), "custom:")
	case hasYear && hasMonth:
		return fmt.Sprintf("%04d-%02d", year, month+1)
	case hasYear:
		return fmt.Sprintf("%04d", year)
	}
	return "all"
}

// Filename builds the download name for an export extension.
func (f dashboardFilters) Filename(ext string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r == '-':
			return r
		}
		return '_'
	}, strings.ToLower(f.Label()))
	return fmt.Sprintf("sales-dashboard-%s.%s", name, ext)
}
