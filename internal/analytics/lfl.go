package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/retail-cockpit/cockpit/internal/retail"
)

// LFLKind selects the like-for-like comparison window.
type LFLKind string

const (
	LFLDaily       LFLKind = "daily"
	LFLMonthToDate LFLKind = "mtd"
	LFLYearToDate  LFLKind = "ytd"
	LFLMonthly     LFLKind = "monthly"
	LFLRange       LFLKind = "range"
)

// ErrUnknownLFLKind is returned for a comparison kind outside the known set.
var ErrUnknownLFLKind = errors.New("analytics: unknown lfl kind")

// ParseLFLKind validates a raw comparison kind.
func ParseLFLKind(raw string) (LFLKind, error) {
	switch kind := LFLKind(raw); kind {
	case LFLDaily, LFLMonthToDate, LFLYearToDate, LFLMonthly, LFLRange:
		return kind, nil
	case "":
		return LFLDaily, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLFLKind, raw)
}

// LFLRequest describes a comparison. Date is used by daily, Month (0..11 of
// the current year) by monthly. Range compares From..To with PrevFrom..PrevTo;
// unset bounds default to month-to-date against the same days last year.
type LFLRequest struct {
	Kind     LFLKind
	Date     time.Time
	Month    int
	From     time.Time
	To       time.Time
	PrevFrom time.Time
	PrevTo   time.Time
	Store    string
}

// PeriodMetrics is the rolled-up activity of an inclusive day window.
type PeriodMetrics struct {
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	Sales        float64   `json:"totalSales"`
	Transactions int       `json:"totalTransactions"`
	Visitors     int       `json:"totalVisitors"`
	ATV          float64   `json:"atv"`
	VisitorRate  float64   `json:"visitorRate"`
}

// LFLComparison pairs the current window with its prior-year equivalent.
type LFLComparison struct {
	Kind               LFLKind       `json:"kind"`
	Store              string        `json:"store"`
	Current            PeriodMetrics `json:"current"`
	Previous           PeriodMetrics `json:"previous"`
	SalesGrowth        float64       `json:"salesGrowth"`
	TransactionsGrowth float64       `json:"transactionsGrowth"`
	VisitorsGrowth     float64       `json:"visitorsGrowth"`
	ATVGrowth          float64       `json:"atvGrowth"`
	VisitorRateDelta   float64       `json:"visitorRateDelta"`
}

type window struct {
	from, to time.Time
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func utcDay(t time.Time) time.Time {
	u := t.UTC()
	return day(u.Year(), u.Month(), u.Day())
}

func lastYear(t time.Time) time.Time {
	return day(t.Year()-1, t.Month(), t.Day())
}

// lflWindows resolves the current and previous windows for a request. MTD
// and YTD end yesterday.
func lflWindows(req LFLRequest, now time.Time) (current, previous window, err error) {
	today := utcDay(now)
	year, month := today.Year(), today.Month()
	yesterday := day(year, month, today.Day()-1)
	yesterdayLY := day(year-1, month, today.Day()-1)
	startOfMonth := day(year, month, 1)
	startOfMonthLY := day(year-1, month, 1)

	switch req.Kind {
	case LFLDaily, "":
		d := today
		if !req.Date.IsZero() {
			d = utcDay(req.Date)
		}
		return window{d, d}, window{lastYear(d), lastYear(d)}, nil
	case LFLMonthToDate:
		return window{startOfMonth, yesterday}, window{startOfMonthLY, yesterdayLY}, nil
	case LFLYearToDate:
		return window{day(year, time.January, 1), yesterday}, window{day(year-1, time.January, 1), yesterdayLY}, nil
	case LFLMonthly:
		if req.Month < 0 || req.Month > 11 {
			return window{}, window{}, fmt.Errorf("analytics: lfl month %d out of range", req.Month)
		}
		m := time.Month(req.Month + 1)
		return window{day(year, m, 1), day(year, m+1, 0)}, window{day(year-1, m, 1), day(year-1, m+1, 0)}, nil
	case LFLRange:
		current = window{startOfMonth, today}
		if !req.From.IsZero() && !req.To.IsZero() {
			current = window{utcDay(req.From), utcDay(req.To)}
		}
		previous = window{startOfMonthLY, yesterdayLY}
		if !req.PrevFrom.IsZero() && !req.PrevTo.IsZero() {
			previous = window{utcDay(req.PrevFrom), utcDay(req.PrevTo)}
		}
		return current, previous, nil
	}
	return window{}, window{}, fmt.Errorf("%w: %q", ErrUnknownLFLKind, req.Kind)
}

func (w window) years() []int {
	if w.to.Before(w.from) {
		return nil
	}
	years := make([]int, 0, 1)
	for y := w.from.Year(); y <= w.to.Year(); y++ {
		years = append(years, y)
	}
	return years
}

func rollUp(metrics []retail.DailyMetric, w window) PeriodMetrics {
	p := PeriodMetrics{From: w.from, To: w.to}
	for _, m := range metrics {
		d := utcDay(m.Date)
		if m.Date.IsZero() || d.Before(w.from) || d.After(w.to) {
			continue
		}
		p.Sales += m.TotalSales
		p.Transactions += m.TransactionCount
		p.Visitors += m.Visitors
	}
	p.ATV = safeDiv(p.Sales, float64(p.Transactions))
	p.VisitorRate = safePercent(float64(p.Transactions), float64(p.Visitors))
	return p
}

// CompareLFL compares the requested window with the same window one year
// earlier. Rows are narrowed to req.Store unless it is empty or "All".
func CompareLFL(metrics []retail.DailyMetric, req LFLRequest, now time.Time) (LFLComparison, error) {
	current, previous, err := lflWindows(req, now)
	if err != nil {
		return LFLComparison{}, err
	}
	store := req.Store
	if store == "" {
		store = "All"
	}
	if store != "All" {
		rows := make([]retail.DailyMetric, 0, len(metrics))
		for _, m := range metrics {
			if m.Store == req.Store {
				rows = append(rows, m)
			}
		}
		metrics = rows
	}
	cur, prev := rollUp(metrics, current), rollUp(metrics, previous)
	kind := req.Kind
	if kind == "" {
		kind = LFLDaily
	}
	return LFLComparison{
		Kind:               kind,
		Store:              store,
		Current:            cur,
		Previous:           prev,
		SalesGrowth:        growthPercent(prev.Sales, cur.Sales),
		TransactionsGrowth: growthPercent(float64(prev.Transactions), float64(cur.Transactions)),
		VisitorsGrowth:     growthPercent(float64(prev.Visitors), float64(cur.Visitors)),
		ATVGrowth:          growthPercent(prev.ATV, cur.ATV),
		VisitorRateDelta:   cur.VisitorRate - prev.VisitorRate,
	}, nil
}
