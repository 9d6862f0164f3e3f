package analytics

import (
	"strconv"
	"time"

	"github.com/retail-cockpit/cockpit/internal/retail"
)

// buildTrend returns one point per day for a selected month, one point per
// month for a selected year and nothing when the year is unbounded. Daily
// points carry a flat share of the monthly target regardless of any day
// selection.
func buildTrend(ds retail.Dataset, f retail.DateFilter) []TrendPoint {
	year, ok := f.Year.Value()
	if !ok {
		return []TrendPoint{}
	}
	if month, ok := f.Month.Value(); ok {
		return dailyTrend(ds, year, month)
	}
	return monthlyTrend(ds, year)
}

func dailyTrend(ds retail.Dataset, year, month int) []TrendPoint {
	days := retail.DaysIn(year, month)
	var monthlyTarget float64
	for _, s := range ds.Stores {
		monthlyTarget += retail.EffectiveTarget(s.Targets, retail.ForMonth(year, month))
	}
	perDay := safeDiv(monthlyTarget, float64(days))

	points := make([]TrendPoint, days)
	for i := range points {
		points[i] = TrendPoint{Name: strconv.Itoa(i + 1), Target: perDay}
	}
	for _, m := range ds.Metrics {
		d := m.Date.UTC()
		if d.Year() != year || int(d.Month())-1 != month {
			continue
		}
		points[d.Day()-1].Sales += m.TotalSales
	}
	return points
}

func monthlyTrend(ds retail.Dataset, year int) []TrendPoint {
	points := make([]TrendPoint, 12)
	for i := range points {
		points[i].Name = time.Month(i + 1).String()[:3]
	}
	for _, m := range ds.Metrics {
		d := m.Date.UTC()
		if d.Year() != year {
			continue
		}
		points[d.Month()-1].Sales += m.TotalSales
	}
	for _, s := range ds.Stores {
		for month := 1; month <= 12; month++ {
			points[month-1].Target += s.Targets.Get(year, month)
		}
	}
	return points
}
