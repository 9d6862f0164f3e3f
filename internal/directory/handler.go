package directory

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/retail-cockpit/cockpit/internal/access"
	"github.com/retail-cockpit/cockpit/internal/platform/httpx"
)

// Handler exposes the directory over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   access.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: access.Middleware{Logger: logger}}
}

// MountRoutes registers directory routes. Callers must authenticate first.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/directory", func(r chi.Router) {
		r.With(h.guard.RequireAny(access.CanViewAll, access.CanManageDirectory)).Get("/stores", h.listStores)
		r.With(h.guard.RequireAny(access.CanViewAll, access.CanManageDirectory)).Get("/employees", h.listEmployees)
		r.With(h.guard.RequireAll(access.CanManageDirectory)).Put("/stores/{id}", h.putStore)
		r.With(h.guard.RequireAll(access.CanManageDirectory)).Put("/employees/{id}", h.putEmployee)
		r.With(h.guard.RequireAll(access.CanManageDirectory)).Put("/employees/{id}/assignments", h.putAssignment)
		r.With(h.guard.RequireAll(access.CanEditBranchTargets)).Put("/stores/{id}/targets", h.putStoreTarget)
		r.With(h.guard.RequireAll(access.CanEditEmployeeTargets)).Put("/employees/{id}/targets", h.putEmployeeTarget)
		r.With(h.guard.RequireAll(access.CanImportReports)).Post("/metrics", h.postMetric)
		r.With(h.guard.RequireAll(access.CanImportReports)).Post("/sales/{stream}", h.postSales)
	})
}

func (h *Handler) listStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.service.ListStores(r.Context())
	if err != nil {
		h.fail(w, r, "list stores", err)
		return
	}
	httpx.JSON(w, http.StatusOK, stores)
}

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.ListEmployees(r.Context())
	if err != nil {
		h.fail(w, r, "list employees", err)
		return
	}
	httpx.JSON(w, http.StatusOK, employees)
}

func (h *Handler) putStore(w http.ResponseWriter, r *http.Request) {
	var in StoreInput
	if !h.decode(w, r, &in) {
		return
	}
	in.ID = chi.URLParam(r, "id")
	if err := h.service.UpsertStore(r.Context(), in); err != nil {
		h.fail(w, r, "upsert store", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) putEmployee(w http.ResponseWriter, r *http.Request) {
	var in EmployeeInput
	if !h.decode(w, r, &in) {
		return
	}
	in.ID = chi.URLParam(r, "id")
	if err := h.service.UpsertEmployee(r.Context(), in); err != nil {
		h.fail(w, r, "upsert employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) putAssignment(w http.ResponseWriter, r *http.Request) {
	var in AssignmentInput
	if !h.decode(w, r, &in) {
		return
	}
	in.EmployeeID = chi.URLParam(r, "id")
	if err := h.service.AssignEmployee(r.Context(), in); err != nil {
		h.fail(w, r, "assign employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type targetBody struct {
	Year   int     `json:"year"`
	Month  int     `json:"month"`
	Amount float64 `json:"amount"`
	Duvet  bool    `json:"duvet"`
}

func (h *Handler) putStoreTarget(w http.ResponseWriter, r *http.Request) {
	var in targetBody
	if !h.decode(w, r, &in) {
		return
	}
	if err := h.service.SetStoreTarget(r.Context(), chi.URLParam(r, "id"), in.Year, in.Month, in.Amount); err != nil {
		h.fail(w, r, "set store target", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) putEmployeeTarget(w http.ResponseWriter, r *http.Request) {
	var in targetBody
	if !h.decode(w, r, &in) {
		return
	}
	if err := h.service.SetEmployeeTarget(r.Context(), chi.URLParam(r, "id"), in.Duvet, in.Year, in.Month, in.Amount); err != nil {
		h.fail(w, r, "set employee target", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) postMetric(w http.ResponseWriter, r *http.Request) {
	var in MetricInput
	if !h.decode(w, r, &in) {
		return
	}
	id, err := h.service.RecordMetric(r.Context(), in)
	if err != nil {
		h.fail(w, r, "record metric", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) postSales(w http.ResponseWriter, r *http.Request) {
	var lines []SalesLine
	if !h.decode(w, r, &lines) {
		return
	}
	n, err := h.service.ImportSales(r.Context(), strings.ToLower(chi.URLParam(r, "stream")), lines)
	if err != nil {
		h.fail(w, r, "import sales", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]int64{"imported": n})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		var syntax *json.SyntaxError
		detail := "malformed JSON body"
		if errors.As(err, &syntax) {
			detail = fmt.Sprintf("malformed JSON at offset %d", syntax.Offset)
		}
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", detail)
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if !errors.Is(err, httpx.ErrValidation) {
		h.logger.ErrorContext(r.Context(), op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
