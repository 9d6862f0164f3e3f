package sources

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/retail-cockpit/cockpit/internal/retail"
)

const (
	feedConcurrency = 4
	maxDailyFanout  = 62
)

// Feed turns provider responses into metric rows for a date filter.
type Feed struct {
	provider Provider
	logger   *slog.Logger
}

// NewFeed wraps provider.
func NewFeed(provider Provider, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{provider: provider, logger: logger}
}

// DailyMetrics requests every window the filter covers. Failed windows
// contribute nothing.
func (f *Feed) DailyMetrics(ctx context.Context, filter retail.DateFilter) []retail.DailyMetric {
	if f == nil || f.provider == nil {
		return nil
	}
	reqs := planRequests(filter)
	if len(reqs) == 0 {
		return nil
	}
	results := make([][]retail.DailyMetric, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(feedConcurrency)
	for i, req := range reqs {
		g.Go(func() error {
			resp := f.provider.Metrics(gctx, req)
			if !resp.Success {
				f.logger.WarnContext(gctx, "metrics window skipped",
					slog.String("request", req.Key()),
					slog.Any("notes", resp.Debug.Notes),
				)
				return nil
			}
			results[i] = ToDailyMetrics(resp)
			return nil
		})
	}
	_ = g.Wait()

	var out []retail.DailyMetric
	for _, rows := range results {
		out = append(out, rows...)
	}
	return out
}

// planRequests splits the filter window into provider requests: one per
// whole year or month, one per day for short spans and one per month for
// long ones. Unbounded filters request nothing.
func planRequests(f retail.DateFilter) []Request {
	from, to, ok := f.Window()
	if !ok {
		return nil
	}
	if from.Year() == to.Year() && from.YearDay() == 1 && to.Month() == time.December && to.Day() == 31 {
		return []Request{YearRequest(from.Year())}
	}
	if from.Year() == to.Year() && from.Month() == to.Month() && from.Day() == 1 &&
		to.Day() == retail.DaysIn(to.Year(), int(to.Month())-1) {
		return []Request{MonthRequest(from.Year(), int(from.Month())-1)}
	}
	if int(to.Sub(from).Hours()/24)+1 <= maxDailyFanout {
		var reqs []Request
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			reqs = append(reqs, DayRequest(d.Year(), int(d.Month())-1, d.Day()))
		}
		return reqs
	}
	var reqs []Request
	first := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	for m := first; !m.After(to); m = m.AddDate(0, 1, 0) {
		reqs = append(reqs, MonthRequest(m.Year(), int(m.Month())-1))
	}
	return reqs
}
