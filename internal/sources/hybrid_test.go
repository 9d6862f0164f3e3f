package sources

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retail-cockpit/cockpit/internal/platform/cache"
	"github.com/retail-cockpit/cockpit/internal/retail"
)

type stubProvider struct {
	mu      sync.Mutex
	name    string
	fail    bool
	calls   []Request
	respond func(Request) Response
}

func (s *stubProvider) Metrics(_ context.Context, req Request) Response {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return Failed(s.name, req, assert.AnError)
	}
	if s.respond != nil {
		return s.respond(req)
	}
	from, _ := req.Window()
	return Response{
		Success:    true,
		Range:      rangeOf(req),
		ByStore:    []StoreMetrics{{StoreID: "S1", StoreName: "Mall One", SalesAmount: 100, Invoices: 2}},
		ByEmployee: []EmployeeMetrics{},
		ByDay: []DayMetrics{{
			Date:    from.Format(dayLayout),
			ByStore: []StoreMetrics{{StoreID: "S1", StoreName: "Mall One", SalesAmount: 100, Invoices: 2}},
		}},
		Totals: Totals{SalesAmount: 100, Invoices: 2},
		Debug:  Debug{Source: s.name},
	}
}

func (s *stubProvider) requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.calls...)
}

func TestHybridRoutesByCutoff(t *testing.T) {
	legacy := &stubProvider{name: SourceLegacy}
	live := &stubProvider{name: SourceLive}
	h := NewHybrid(legacy, live, 0, nil)
	ctx := context.Background()

	assert.Equal(t, SourceLegacy, h.Metrics(ctx, YearRequest(2025)).Debug.Source)
	assert.Equal(t, SourceLive, h.Metrics(ctx, MonthRequest(2026, 0)).Debug.Source)
	assert.Len(t, legacy.requests(), 1)
	assert.Len(t, live.requests(), 1)

	h = NewHybrid(legacy, live, 2026, nil)
	assert.Equal(t, SourceLegacy, h.Route(2026))
	assert.Equal(t, SourceLive, h.Route(2027))
}

func TestHybridNeverErrors(t *testing.T) {
	h := NewHybrid(nil, &stubProvider{name: SourceLive, fail: true}, 2025, nil)
	ctx := context.Background()

	resp := h.Metrics(ctx, YearRequest(2020))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Debug.Notes[0], ErrSourceMissing.Error())

	resp = h.Metrics(ctx, YearRequest(2026))
	assert.False(t, resp.Success)
	assert.Empty(t, resp.ByStore)
	assert.Empty(t, resp.ByEmployee)

	resp = h.Metrics(ctx, MonthRequest(2026, -1))
	assert.False(t, resp.Success)
}

func TestHybridObserver(t *testing.T) {
	type outcome struct {
		source  string
		success bool
	}
	var seen []outcome
	h := NewHybrid(&stubProvider{name: SourceLegacy}, &stubProvider{name: SourceLive, fail: true}, 2025, nil).
		WithObserver(func(source string, success bool, elapsed time.Duration) {
			assert.GreaterOrEqual(t, elapsed, time.Duration(0))
			seen = append(seen, outcome{source, success})
		})
	ctx := context.Background()

	h.Metrics(ctx, YearRequest(2024))
	h.Metrics(ctx, YearRequest(2026))
	h.Metrics(ctx, MonthRequest(2026, 12))

	assert.Equal(t, []outcome{{SourceLegacy, true}, {SourceLive, false}}, seen)
}

func newCached(t *testing.T, next Provider) (*Cached, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCached(next, cache.NewVersioned(client, "metrics", time.Minute), nil), mr
}

func TestCachedStoresSuccessfulResponses(t *testing.T) {
	stub := &stubProvider{name: SourceLive}
	c, _ := newCached(t, stub)
	ctx := context.Background()

	first := c.Metrics(ctx, MonthRequest(2026, 2))
	second := c.Metrics(ctx, MonthRequest(2026, 2))
	assert.Equal(t, first, second)
	assert.Len(t, stub.requests(), 1)

	_, err := c.Invalidate(ctx)
	require.NoError(t, err)
	c.Metrics(ctx, MonthRequest(2026, 2))
	assert.Len(t, stub.requests(), 2)
}

func TestCachedSkipsFailures(t *testing.T) {
	stub := &stubProvider{name: SourceLive, fail: true}
	c, _ := newCached(t, stub)
	ctx := context.Background()

	assert.False(t, c.Metrics(ctx, MonthRequest(2026, 2)).Success)
	assert.False(t, c.Metrics(ctx, MonthRequest(2026, 2)).Success)
	assert.Len(t, stub.requests(), 2)
}

func TestCachedFallsBackWhenRedisIsDown(t *testing.T) {
	stub := &stubProvider{name: SourceLive}
	c, mr := newCached(t, stub)
	mr.Close()

	resp := c.Metrics(context.Background(), MonthRequest(2026, 2))
	assert.True(t, resp.Success)
	assert.Len(t, stub.requests(), 1)
}

func TestPlanRequests(t *testing.T) {
	day := func(s string) *time.Time {
		d, err := time.Parse(dayLayout, s)
		require.NoError(t, err)
		return &d
	}
	cases := []struct {
		name   string
		filter retail.DateFilter
		want   []string
	}{
		{"unbounded", retail.AllTime(), nil},
		{"year", retail.ForYear(2026), []string{"2026:all:all::"}},
		{"month", retail.ForMonth(2026, 1), []string{"2026:1:all::"}},
		{"day", retail.ForDay(2026, 1, 3), []string{"2026:1:3::"}},
		{"range", retail.ForRange(2026, 1, retail.Only(27), retail.Only(2)), []string{"2026:1:2::", "2026:1:3::", "2026:1:4::", "2026:1:5::", "2026:1:6::", "2026:1:7::", "2026:1:8::", "2026:1:9::", "2026:1:10::", "2026:1:11::", "2026:1:12::", "2026:1:13::", "2026:1:14::", "2026:1:15::", "2026:1:16::", "2026:1:17::", "2026:1:18::", "2026:1:19::", "2026:1:20::", "2026:1:21::", "2026:1:22::", "2026:1:23::", "2026:1:24::", "2026:1:25::", "2026:1:26::", "2026:1:27::"}},
		{"short custom", retail.ForCustom(day("2025-12-31"), day("2026-01-01")), []string{"2025:11:31::", "2026:0:1::"}},
		{"long custom", retail.ForCustom(day("2025-11-15"), day("2026-02-01")), []string{"2025:10:all::", "2025:11:all::", "2026:0:all::", "2026:1:all::"}},
		{"open custom", retail.ForCustom(day("2025-11-15"), nil), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got []string
			for _, req := range planRequests(tc.filter) {
				got = append(got, req.Key())
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFeedMergesWindows(t *testing.T) {
	stub := &stubProvider{name: SourceLegacy}
	feed := NewFeed(stub, nil)
	f := retail.ForRange(2025, 5, retail.Only(1), retail.Only(3))

	rows := feed.DailyMetrics(context.Background(), f)
	require.Len(t, rows, 3)
	assert.Len(t, stub.requests(), 3)
	for _, r := range rows {
		assert.Equal(t, "Mall One", r.Store)
		assert.True(t, f.Matches(r.Date))
	}

	stub.fail = true
	assert.Empty(t, feed.DailyMetrics(context.Background(), f))
	assert.Empty(t, feed.DailyMetrics(context.Background(), retail.AllTime()))
}
