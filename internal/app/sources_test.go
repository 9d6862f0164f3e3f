package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retail-cockpit/cockpit/internal/observability"
	"github.com/retail-cockpit/cockpit/internal/sources"
)

const testSnapshot = `{
  "store_meta": {"S1": {"manager": "Rina", "store_name": "Mall One", "city": "Jakarta"}},
  "sales": [["2025-06-01", "S1", 100], ["2025-06-02", "S1", 50]],
  "transactions": [["2025-06-01", "S1", 3]],
  "visitors": [],
  "targets": {}
}`

type countingInvalidator struct{ n atomic.Int32 }

func (c *countingInvalidator) Invalidate() { c.n.Add(1) }

func newTestSources(t *testing.T) (*DataSources, *observability.Metrics, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testSnapshot))
	}))
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &Config{LegacyCutoffYear: 2025, LegacySnapshotURL: srv.URL, CacheTTL: time.Minute}
	metrics := observability.NewMetrics()
	return NewDataSources(context.Background(), cfg, client, metrics, newLogger(io.Discard, cfg)), metrics, &hits
}

func TestDataSourcesServeLegacyThroughCache(t *testing.T) {
	ds, metrics, hits := newTestSources(t)
	ctx := context.Background()

	resp := ds.Provider.Metrics(ctx, sources.MonthRequest(2025, 5))
	require.True(t, resp.Success, resp.Debug.Notes)
	assert.Equal(t, sources.SourceLegacy, resp.Debug.Source)
	assert.Equal(t, 150.0, resp.Totals.SalesAmount)

	again := ds.Provider.Metrics(ctx, sources.MonthRequest(2025, 5))
	assert.Equal(t, resp.Totals, again.Totals)
	assert.Equal(t, int32(1), hits.Load())

	scrape := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), `cockpit_source_responses_total{outcome="success",source="legacy"} 1`)
}

func TestDataSourcesWithoutLiveConfig(t *testing.T) {
	ds, _, _ := newTestSources(t)
	resp := ds.Provider.Metrics(context.Background(), sources.YearRequest(2026))
	assert.False(t, resp.Success)
	assert.Equal(t, sources.SourceLive, resp.Debug.Source)
}

func TestDataSourcesWatchInvalidatesMemoizedData(t *testing.T) {
	ds, _, hits := newTestSources(t)
	counter := &countingInvalidator{}
	ds.memoized = append(ds.memoized, counter)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, ds.Watch(ctx))

	ds.Provider.Metrics(ctx, sources.MonthRequest(2025, 5))
	_, err := ds.Cache.Invalidate(ctx)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return counter.n.Load() == 1 }, time.Second, 10*time.Millisecond)

	ds.Provider.Metrics(ctx, sources.MonthRequest(2025, 5))
	assert.Equal(t, int32(2), hits.Load())
}
