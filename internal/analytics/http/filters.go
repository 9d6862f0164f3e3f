package analytichttp

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/retail-cockpit/cockpit/internal/access"
	"github.com/retail-cockpit/cockpit/internal/analytics"
	"github.com/retail-cockpit/cockpit/internal/retail"
	"github.com/retail-cockpit/cockpit/internal/sources"
)

// dashboardFilters is the parsed dashboard query. Months are 0-indexed.
type dashboardFilters struct {
	Date      retail.DateFilter
	Selection access.Selection
}

// filterQuery holds the raw query values that carry static constraints.
type filterQuery struct {
	Mode  string `validate:"omitempty,oneof=single range custom"`
	Area  string `validate:"max=200"`
	Store string `validate:"max=200"`
	City  string `validate:"max=120"`
}

func (h *Handler) checkQuery(q filterQuery) error {
	err := h.validate.Struct(q)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		return validationError{field: strings.ToLower(fields[0].Field())}
	}
	return validationError{field: "query"}
}

// parseFilters reads year, month, day, mode, from, to, start, end, area, store
// and city. Year and month default to the current ones; "all" widens them.
func (h *Handler) parseFilters(r *http.Request) (dashboardFilters, error) {
	q := r.URL.Query()
	now := h.now().UTC()

	raw := filterQuery{
		Mode:  strings.ToLower(strings.TrimSpace(q.Get("mode"))),
		Area:  strings.TrimSpace(q.Get("area")),
		Store: strings.TrimSpace(q.Get("store")),
		City:  strings.TrimSpace(q.Get("city")),
	}
	if err := h.checkQuery(raw); err != nil {
		return dashboardFilters{}, err
	}
	out := dashboardFilters{Selection: access.Selection{AreaManager: raw.Area, Store: raw.Store, City: raw.City}}

	if raw.Mode == "custom" {
		start, err := optionalDay(q, "start")
		if err != nil {
			return dashboardFilters{}, err
		}
		end, err := optionalDay(q, "end")
		if err != nil {
			return dashboardFilters{}, err
		}
		out.Date = retail.ForCustom(start, end)
		return out, nil
	}

	year, err := selectorOr(q, "year", retail.Only(now.Year()))
	if err != nil {
		return dashboardFilters{}, err
	}
	if y, ok := year.Value(); ok && (y < 2000 || y > 2100) {
		return dashboardFilters{}, validationError{field: "year"}
	}
	month, err := selectorOr(q, "month", retail.Only(int(now.Month())-1))
	if err != nil {
		return dashboardFilters{}, err
	}
	if m, ok := month.Value(); ok && (m < 0 || m > 11) {
		return dashboardFilters{}, validationError{field: "month"}
	}
	out.Date = retail.DateFilter{Year: year, Month: month}

	days := 31
	if y, ok := year.Value(); ok {
		if m, ok := month.Value(); ok {
			days = retail.DaysIn(y, m)
		}
	}

	if raw.Mode == "range" {
		from, err := daySelector(q, "from", days)
		if err != nil {
			return dashboardFilters{}, err
		}
		to, err := daySelector(q, "to", days)
		if err != nil {
			return dashboardFilters{}, err
		}
		out.Date.Day = retail.DayRange{From: from, To: to}
		return out, nil
	}

	day, err := daySelector(q, "day", days)
	if err != nil {
		return dashboardFilters{}, err
	}
	out.Date.Day = retail.SingleDay{Day: day}
	return out, nil
}

func selectorOr(q url.Values, field string, def retail.Selector) (retail.Selector, error) {
	if !q.Has(field) || strings.TrimSpace(q.Get(field)) == "" {
		return def, nil
	}
	s, err := retail.ParseSelector(q.Get(field))
	if err != nil {
		return retail.All(), validationError{field: field}
	}
	return s, nil
}

func daySelector(q url.Values, field string, days int) (retail.Selector, error) {
	s, err := selectorOr(q, field, retail.All())
	if err != nil {
		return s, err
	}
	if d, ok := s.Value(); ok && (d < 1 || d > days) {
		return retail.All(), validationError{field: field}
	}
	return s, nil
}

func optionalDay(q url.Values, field string) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(field))
	if raw == "" {
		return nil, nil
	}
	d, err := retail.ParseDay(raw)
	if err != nil {
		return nil, validationError{field: field}
	}
	return &d, nil
}

func dayValue(q url.Values, field string) (time.Time, error) {
	d, err := optionalDay(q, field)
	if err != nil || d == nil {
		return time.Time{}, err
	}
	return *d, nil
}

// parseLFL reads kind, date, month, from, to, prevFrom, prevTo and store.
func parseLFL(r *http.Request) (analytics.LFLRequest, error) {
	q := r.URL.Query()
	kind, err := analytics.ParseLFLKind(strings.ToLower(strings.TrimSpace(q.Get("kind"))))
	if err != nil {
		return analytics.LFLRequest{}, validationError{field: "kind"}
	}
	req := analytics.LFLRequest{Kind: kind, Store: strings.TrimSpace(q.Get("store"))}

	for field, dst := range map[string]*time.Time{
		"date":     &req.Date,
		"from":     &req.From,
		"to":       &req.To,
		"prevFrom": &req.PrevFrom,
		"prevTo":   &req.PrevTo,
	} {
		d, err := dayValue(q, field)
		if err != nil {
			return analytics.LFLRequest{}, err
		}
		*dst = d
	}

	if kind == analytics.LFLMonthly {
		month, err := retail.ParseSelector(q.Get("month"))
		m, ok := month.Value()
		if err != nil || !ok || m < 0 || m > 11 {
			return analytics.LFLRequest{}, validationError{field: "month"}
		}
		req.Month = m
	}
	return req, nil
}

// parseSourceRequest reads year, month, day, store and employee for the raw
// provider endpoint. Month is 0-indexed.
func (h *Handler) parseSourceRequest(r *http.Request) (sources.Request, error) {
	q := r.URL.Query()
	year, err := selectorOr(q, "year", retail.Only(h.now().UTC().Year()))
	if err != nil {
		return sources.Request{}, err
	}
	y, ok := year.Value()
	if !ok {
		return sources.Request{}, validationError{field: "year"}
	}
	req := sources.Request{
		Year:       y,
		StoreID:    strings.TrimSpace(q.Get("store")),
		EmployeeID: strings.TrimSpace(q.Get("employee")),
	}
	month, err := selectorOr(q, "month", retail.All())
	if err != nil {
		return sources.Request{}, err
	}
	if m, ok := month.Value(); ok {
		if m < 0 || m > 11 {
			return sources.Request{}, validationError{field: "month"}
		}
		req.Month = &m
	}
	day, err := selectorOr(q, "day", retail.All())
	if err != nil {
		return sources.Request{}, err
	}
	if d, ok := day.Value(); ok {
		req.Day = &d
	}
	if err := req.Validate(); err != nil {
		if req.Day != nil {
			return sources.Request{}, validationError{field: "day"}
		}
		return sources.Request{}, validationError{field: "year"}
	}
	return req, nil
}
