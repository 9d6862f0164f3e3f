package retail

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// TargetMap stores sales targets keyed by year then calendar month (1..12).
// Lookups of absent entries yield zero.
type TargetMap map[int]map[int]float64

// Get returns the target for a calendar month (1..12).
func (t TargetMap) Get(year, month int) float64 {
	if t == nil {
		return 0
	}
	return t[year][month]
}

// Set stores a monthly target, allocating the year bucket when needed.
func (t TargetMap) Set(year, month int, amount float64) {
	if t[year] == nil {
		t[year] = make(map[int]float64, 12)
	}
	t[year][month] = amount
}

// YearTotal sums every month present for the year.
func (t TargetMap) YearTotal(year int) float64 {
	total := 0.0
	for _, amount := range t[year] {
		total += amount
	}
	return total
}

// Years returns the years with at least one target, ascending.
func (t TargetMap) Years() []int {
	years := make([]int, 0, len(t))
	for y := range t {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// MarshalJSON emits the {"2025": {"6": 10000}} wire shape.
func (t TargetMap) MarshalJSON() ([]byte, error) {
	raw := make(map[string]map[string]float64, len(t))
	for year, months := range t {
		bucket := make(map[string]float64, len(months))
		for month, amount := range months {
			bucket[strconv.Itoa(month)] = amount
		}
		raw[strconv.Itoa(year)] = bucket
	}
	return json.Marshal(raw)
}

// UnmarshalJSON accepts the wire shape and skips keys that are not numbers.
func (t *TargetMap) UnmarshalJSON(data []byte) error {
	var raw map[string]map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(TargetMap, len(raw))
	for yearKey, months := range raw {
		year, err := strconv.Atoi(yearKey)
		if err != nil {
			continue
		}
		for monthKey, amount := range months {
			month, err := strconv.Atoi(monthKey)
			if err != nil || month < 1 || month > 12 {
				continue
			}
			out.Set(year, month, amount)
		}
	}
	*t = out
	return nil
}

// EffectiveTarget pro-rates a target map to the filter window. A whole year
// sums its months, a month returns its value, a single day receives a uniform
// share of the month. An unbounded year has no comparable target.
func EffectiveTarget(targets TargetMap, f DateFilter) float64 {
	year, ok := f.Year.Value()
	if !ok {
		return 0
	}
	month, ok := f.Month.Value()
	if !ok {
		return targets.YearTotal(year)
	}
	monthly := targets.Get(year, month+1)
	if _, ok := f.SpecificDay(); ok {
		return monthly / float64(DaysIn(year, month))
	}
	return monthly
}

// DaysIn returns the number of days of a 0-indexed month.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month+2), 0, 0, 0, 0, 0, time.UTC).Day()
}
