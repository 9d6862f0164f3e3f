// Package sources fetches store and employee sales figures from the legacy
// snapshot and the live transactions API behind one normalized shape.
package sources

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/retail-cockpit/cockpit/internal/retail"
)

const dayLayout = "2006-01-02"

// Source names reported in Debug.
const (
	SourceLegacy = "legacy"
	SourceLive   = "live"
)

// ErrUnexpectedStatus is wrapped when an upstream answers with a non-2xx code.
var ErrUnexpectedStatus = errors.New("sources: unexpected status")

// Request selects a calendar window. Month is 0-indexed.
type Request struct {
	Year       int    `json:"year"`
	Month      *int   `json:"month,omitempty"`
	Day        *int   `json:"day,omitempty"`
	StoreID    string `json:"storeId,omitempty"`
	EmployeeID string `json:"employeeId,omitempty"`
}

// YearRequest asks for a whole year.
func YearRequest(year int) Request { return Request{Year: year} }

// MonthRequest asks for a 0-indexed month.
func MonthRequest(year, month int) Request { return Request{Year: year, Month: &month} }

// DayRequest asks for one day of a 0-indexed month.
func DayRequest(year, month, day int) Request {
	return Request{Year: year, Month: &month, Day: &day}
}

// Window returns the inclusive first and last day covered.
func (r Request) Window() (from, to time.Time) {
	if r.Month == nil {
		return time.Date(r.Year, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(r.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	month := time.Month(*r.Month + 1)
	if r.Day != nil {
		d := time.Date(r.Year, month, *r.Day, 0, 0, 0, 0, time.UTC)
		return d, d
	}
	return time.Date(r.Year, month, 1, 0, 0, 0, 0, time.UTC),
		time.Date(r.Year, month+1, 0, 0, 0, 0, 0, time.UTC)
}

// Filter is the date filter equivalent of the request window.
func (r Request) Filter() retail.DateFilter {
	switch {
	case r.Month == nil:
		return retail.ForYear(r.Year)
	case r.Day == nil:
		return retail.ForMonth(r.Year, *r.Month)
	}
	return retail.ForDay(r.Year, *r.Month, *r.Day)
}

// Validate rejects windows that cannot exist.
func (r Request) Validate() error {
	if r.Year < 1 || r.Year > 9999 {
		return fmt.Errorf("sources: year %d out of range", r.Year)
	}
	if r.Month != nil && (*r.Month < 0 || *r.Month > 11) {
		return fmt.Errorf("sources: month %d out of range", *r.Month)
	}
	if r.Day != nil {
		if r.Month == nil {
			return errors.New("sources: day requires a month")
		}
		if *r.Day < 1 || *r.Day > retail.DaysIn(r.Year, *r.Month) {
			return fmt.Errorf("sources: day %d out of range", *r.Day)
		}
	}
	return nil
}

// Key identifies the request for caching.
func (r Request) Key() string {
	parts := []string{strconv.Itoa(r.Year), "all", "all", r.StoreID, r.EmployeeID}
	if r.Month != nil {
		parts[1] = strconv.Itoa(*r.Month)
	}
	if r.Day != nil {
		parts[2] = strconv.Itoa(*r.Day)
	}
	return strings.Join(parts, ":")
}

// Range echoes the resolved window. Month is 1-indexed on the wire.
type Range struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Year  int    `json:"year"`
	Month *int   `json:"month,omitempty"`
	Day   *int   `json:"day,omitempty"`
}

func rangeOf(r Request) Range {
	from, to := r.Window()
	out := Range{From: from.Format(dayLayout), To: to.Format(dayLayout), Year: r.Year, Day: r.Day}
	if r.Month != nil {
		m := *r.Month + 1
		out.Month = &m
	}
	return out
}

// KPIs are ratios derived from the sums next to them.
type KPIs struct {
	ATV           float64  `json:"atv"`
	Conversion    *float64 `json:"conversion,omitempty"`
	CustomerValue float64  `json:"customerValue"`
}

// StoreMetrics is one store's activity in the window.
type StoreMetrics struct {
	StoreID     string  `json:"storeId"`
	StoreName   string  `json:"storeName,omitempty"`
	City        string  `json:"city,omitempty"`
	SalesAmount float64 `json:"salesAmount"`
	Invoices    int     `json:"invoices"`
	Visitors    int     `json:"visitors,omitempty"`
	Target      float64 `json:"target,omitempty"`
	KPIs        KPIs    `json:"kpis"`
}

// EmployeeMetrics is one salesperson's activity in the window.
type EmployeeMetrics struct {
	EmployeeID   string  `json:"employeeId"`
	EmployeeName string  `json:"employeeName,omitempty"`
	StoreID      string  `json:"storeId,omitempty"`
	StoreName    string  `json:"storeName,omitempty"`
	SalesAmount  float64 `json:"salesAmount"`
	Invoices     int     `json:"invoices"`
	KPIs         KPIs    `json:"kpis"`
}

// DayMetrics breaks one day down by store and, when known, by employee.
type DayMetrics struct {
	Date       string            `json:"date"`
	ByStore    []StoreMetrics    `json:"byStore"`
	ByEmployee []EmployeeMetrics `json:"byEmployee,omitempty"`
}

// Totals sums every store in the window.
type Totals struct {
	SalesAmount float64 `json:"salesAmount"`
	Invoices    int     `json:"invoices"`
	Visitors    int     `json:"visitors,omitempty"`
	Target      float64 `json:"target,omitempty"`
	KPIs        KPIs    `json:"kpis"`
}

// Debug describes how a response was produced.
type Debug struct {
	Source    string   `json:"source"`
	RequestID string   `json:"requestId,omitempty"`
	Pages     int      `json:"pages,omitempty"`
	Fetched   int      `json:"fetched,omitempty"`
	Notes     []string `json:"notes,omitempty"`
}

// Response is the normalized shape every provider returns.
type Response struct {
	Success    bool              `json:"success"`
	Range      Range             `json:"range"`
	ByStore    []StoreMetrics    `json:"byStore"`
	ByEmployee []EmployeeMetrics `json:"byEmployee"`
	ByDay      []DayMetrics      `json:"byDay,omitempty"`
	Totals     Totals            `json:"totals"`
	Debug      Debug             `json:"debug"`
}

// Provider answers metric requests. Failures are reported through
// Success=false and Debug notes, never as errors.
type Provider interface {
	Metrics(ctx context.Context, req Request) Response
}

// Failed is the empty response returned when a source cannot answer.
func Failed(source string, req Request, err error) Response {
	resp := Response{
		Range:      rangeOf(req),
		ByStore:    []StoreMetrics{},
		ByEmployee: []EmployeeMetrics{},
		Totals:     Totals{},
		Debug:      Debug{Source: source},
	}
	if err != nil {
		resp.Debug.Notes = []string{"error: " + err.Error()}
	}
	return resp
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func kpisFor(sales float64, invoices, visitors int) KPIs {
	atv := ratio(sales, float64(invoices))
	k := KPIs{ATV: atv, CustomerValue: atv}
	if visitors > 0 {
		conv := ratio(float64(invoices), float64(visitors)) * 100
		k.Conversion = &conv
	}
	return k
}
