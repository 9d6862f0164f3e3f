package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retail-cockpit/cockpit/internal/retail"
)

var lflNow = time.Date(2025, time.June, 15, 8, 0, 0, 0, time.UTC)

func lflMetrics() []retail.DailyMetric {
	at := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 12, 0, 0, 0, time.UTC) }
	return []retail.DailyMetric{
		{Store: "Olaya", Date: at(2025, time.June, 10), TotalSales: 100, TransactionCount: 2, Visitors: 10},
		{Store: "Olaya", Date: at(2024, time.June, 10), TotalSales: 50, TransactionCount: 1, Visitors: 10},
		{Store: "Olaya", Date: at(2025, time.June, 15), TotalSales: 999, TransactionCount: 9, Visitors: 9},
		{Store: "Nakheel", Date: at(2025, time.January, 5), TotalSales: 300, TransactionCount: 3, Visitors: 30},
		{Store: "Nakheel", Date: at(2024, time.June, 20), TotalSales: 70, TransactionCount: 1, Visitors: 5},
	}
}

func TestLFLMonthToDateEndsYesterday(t *testing.T) {
	cmp, err := CompareLFL(lflMetrics(), LFLRequest{Kind: LFLMonthToDate}, lflNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), cmp.Current.From)
	assert.Equal(t, time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC), cmp.Current.To)
	assert.Equal(t, time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC), cmp.Previous.To)
	assert.InDelta(t, 100, cmp.Current.Sales, 1e-9)
	assert.InDelta(t, 50, cmp.Previous.Sales, 1e-9)
	assert.InDelta(t, 100, cmp.SalesGrowth, 1e-9)
	assert.InDelta(t, 50, cmp.Current.ATV, 1e-9)
	assert.InDelta(t, 20, cmp.Current.VisitorRate, 1e-9)
	assert.InDelta(t, 10, cmp.VisitorRateDelta, 1e-9)
	assert.Equal(t, "All", cmp.Store)
}

func TestLFLYearToDateAndStoreFilter(t *testing.T) {
	cmp, err := CompareLFL(lflMetrics(), LFLRequest{Kind: LFLYearToDate}, lflNow)
	require.NoError(t, err)
	assert.InDelta(t, 400, cmp.Current.Sales, 1e-9)
	assert.InDelta(t, 50, cmp.Previous.Sales, 1e-9)

	nakheel, err := CompareLFL(lflMetrics(), LFLRequest{Kind: LFLYearToDate, Store: "Nakheel"}, lflNow)
	require.NoError(t, err)
	assert.InDelta(t, 300, nakheel.Current.Sales, 1e-9)
	assert.Zero(t, nakheel.Previous.Sales)
	assert.InDelta(t, 100, nakheel.SalesGrowth, 1e-9)
}

func TestLFLDailyMonthlyAndRange(t *testing.T) {
	daily, err := CompareLFL(lflMetrics(), LFLRequest{Kind: LFLDaily, Date: time.Date(2025, time.June, 10, 23, 0, 0, 0, time.UTC)}, lflNow)
	require.NoError(t, err)
	assert.InDelta(t, 100, daily.Current.Sales, 1e-9)
	assert.InDelta(t, 50, daily.Previous.Sales, 1e-9)

	monthly, err := CompareLFL(lflMetrics(), LFLRequest{Kind: LFLMonthly, Month: 5}, lflNow)
	require.NoError(t, err)
	assert.InDelta(t, 1099, monthly.Current.Sales, 1e-9)
	assert.InDelta(t, 120, monthly.Previous.Sales, 1e-9)
	assert.Equal(t, time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC), monthly.Current.To)

	ranged, err := CompareLFL(lflMetrics(), LFLRequest{Kind: LFLRange}, lflNow)
	require.NoError(t, err)
	assert.InDelta(t, 1099, ranged.Current.Sales, 1e-9, "default range runs to today")
	assert.InDelta(t, 50, ranged.Previous.Sales, 1e-9)

	custom, err := CompareLFL(lflMetrics(), LFLRequest{
		Kind:     LFLRange,
		From:     time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
		PrevFrom: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		PrevTo:   time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC),
	}, lflNow)
	require.NoError(t, err)
	assert.InDelta(t, 300, custom.Current.Sales, 1e-9)
	assert.InDelta(t, 120, custom.Previous.Sales, 1e-9)
}

func TestLFLRejectsBadRequests(t *testing.T) {
	_, err := CompareLFL(nil, LFLRequest{Kind: "weekly"}, lflNow)
	assert.ErrorIs(t, err, ErrUnknownLFLKind)

	_, err = CompareLFL(nil, LFLRequest{Kind: LFLMonthly, Month: 12}, lflNow)
	assert.Error(t, err)

	kind, err := ParseLFLKind("")
	require.NoError(t, err)
	assert.Equal(t, LFLDaily, kind)
	_, err = ParseLFLKind("quarterly")
	assert.ErrorIs(t, err, ErrUnknownLFLKind)
}

func TestLFLEmptyPeriodsStayFinite(t *testing.T) {
	cmp, err := CompareLFL(nil, LFLRequest{Kind: LFLMonthToDate}, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, cmp.Current.ATV)
	assert.Zero(t, cmp.Current.VisitorRate)
	assert.Zero(t, cmp.SalesGrowth)
}
