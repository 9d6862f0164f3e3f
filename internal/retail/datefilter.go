package retail

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// Selector is either a concrete value or "all". The zero value is "all".
type Selector struct {
	value int
	set   bool
}

// All matches every value on its axis.
func All() Selector { return Selector{} }

// Only matches exactly v.
func Only(v int) Selector { return Selector{value: v, set: true} }

// IsAll reports whether the selector is unbounded.
func (s Selector) IsAll() bool { return !s.set }

// Value returns the concrete value when there is one.
func (s Selector) Value() (int, bool) { return s.value, s.set }

// Matches reports whether v satisfies the selector.
func (s Selector) Matches(v int) bool { return !s.set || s.value == v }

func (s Selector) String() string {
	if !s.set {
		return "all"
	}
	return strconv.Itoa(s.value)
}

// MarshalJSON encodes "all" or the number.
func (s Selector) MarshalJSON() ([]byte, error) {
	if !s.set {
		return []byte(`"all"`), nil
	}
	return []byte(strconv.Itoa(s.value)), nil
}

// UnmarshalJSON accepts a number, a numeric string, "all" or null.
func (s *Selector) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = All()
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		parsed, err := ParseSelector(raw)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("retail: selector: %w", err)
	}
	*s = Only(n)
	return nil
}

// ParseSelector reads "", "all" or an integer.
func ParseSelector(raw string) (Selector, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return All(), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return All(), fmt.Errorf("retail: selector %q: %w", raw, err)
	}
	return Only(n), nil
}

// DayMode narrows a filter below month granularity. It is one of SingleDay,
// DayRange or CustomRange.
type DayMode interface {
	mode() string
}

// SingleDay matches one day of the month, or every day.
type SingleDay struct {
	Day Selector
}

// DayRange matches an inclusive span of days inside the selected month.
type DayRange struct {
	From Selector
	To   Selector
}

// CustomRange matches an absolute inclusive span of calendar days. A nil
// bound is open.
type CustomRange struct {
	Start *time.Time
	End   *time.Time
}

func (SingleDay) mode() string   { return "single" }
func (DayRange) mode() string    { return "range" }
func (CustomRange) mode() string { return "custom" }

func (r DayRange) contains(day int) bool {
	from, hasFrom := r.From.Value()
	to, hasTo := r.To.Value()
	switch {
	case hasFrom && hasTo:
		lo, hi := min(from, to), max(from, to)
		return day >= lo && day <= hi
	case hasFrom:
		return day >= from
	case hasTo:
		return day <= to
	default:
		return true
	}
}

func (c CustomRange) contains(day time.Time) bool {
	if c.Start != nil && day.Before(truncateDay(*c.Start)) {
		return false
	}
	if c.End != nil && day.After(truncateDay(*c.End)) {
		return false
	}
	return true
}

// DateFilter selects a window of calendar days. Month is 0-indexed.
type DateFilter struct {
	Year  Selector
	Month Selector
	Day   DayMode
}

// AllTime matches every record.
func AllTime() DateFilter { return DateFilter{} }

// ForYear selects a whole year.
func ForYear(year int) DateFilter { return DateFilter{Year: Only(year)} }

// ForMonth selects a whole 0-indexed month.
func ForMonth(year, month int) DateFilter {
	return DateFilter{Year: Only(year), Month: Only(month)}
}

// ForDay selects one day of a 0-indexed month.
func ForDay(year, month, day int) DateFilter {
	return DateFilter{Year: Only(year), Month: Only(month), Day: SingleDay{Day: Only(day)}}
}

// ForRange selects an inclusive day span of a 0-indexed month.
func ForRange(year, month int, from, to Selector) DateFilter {
	return DateFilter{Year: Only(year), Month: Only(month), Day: DayRange{From: from, To: to}}
}

// ForCustom selects an absolute span of days.
func ForCustom(start, end *time.Time) DateFilter {
	return DateFilter{Day: CustomRange{Start: start, End: end}}
}

// Mode names the active day mode.
func (f DateFilter) Mode() string {
	if f.Day == nil {
		return SingleDay{}.mode()
	}
	return f.Day.mode()
}

// SpecificDay returns the day when the filter selects exactly one day of a
// concrete month.
func (f DateFilter) SpecificDay() (int, bool) {
	single, ok := f.Day.(SingleDay)
	if !ok || f.Year.IsAll() || f.Month.IsAll() {
		return 0, false
	}
	return single.Day.Value()
}

// Matches reports whether ts falls inside the filter. Comparison happens on
// UTC calendar days.
func (f DateFilter) Matches(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	day := truncateDay(ts)
	if custom, ok := f.Day.(CustomRange); ok {
		return custom.contains(day)
	}
	if !f.Year.Matches(day.Year()) || !f.Month.Matches(int(day.Month())-1) {
		return false
	}
	switch mode := f.Day.(type) {
	case DayRange:
		if f.Year.IsAll() || f.Month.IsAll() {
			return true
		}
		return mode.contains(day.Day())
	case SingleDay:
		return mode.Day.Matches(day.Day())
	}
	return true
}

// Window returns the inclusive first and last UTC day covered by the filter.
// ok is false when the window is unbounded.
func (f DateFilter) Window() (from, to time.Time, ok bool) {
	if custom, isCustom := f.Day.(CustomRange); isCustom {
		if custom.Start == nil || custom.End == nil {
			return time.Time{}, time.Time{}, false
		}
		from, to = truncateDay(*custom.Start), truncateDay(*custom.End)
		if to.Before(from) {
			from, to = to, from
		}
		return from, to, true
	}
	year, hasYear := f.Year.Value()
	if !hasYear {
		return time.Time{}, time.Time{}, false
	}
	month, hasMonth := f.Month.Value()
	if !hasMonth {
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC), true
	}
	days := DaysIn(year, month)
	firstDay, lastDay := 1, days
	switch mode := f.Day.(type) {
	case SingleDay:
		if d, set := mode.Day.Value(); set {
			firstDay, lastDay = d, d
		}
	case DayRange:
		lo, hasLo := mode.From.Value()
		hi, hasHi := mode.To.Value()
		if hasLo && hasHi && lo > hi {
			lo, hi = hi, lo
		}
		if hasLo {
			firstDay = max(lo, 1)
		}
		if hasHi {
			lastDay = min(hi, days)
		}
	}
	mon := time.Month(month + 1)
	return time.Date(year, mon, firstDay, 0, 0, 0, 0, time.UTC), time.Date(year, mon, lastDay, 0, 0, 0, 0, time.UTC), true
}

func (f DateFilter) String() string {
	switch mode := f.Day.(type) {
	case CustomRange:
		return fmt.Sprintf("custom:%s..%s", formatBound(mode.Start), formatBound(mode.End))
	case DayRange:
		return fmt.Sprintf("%s-%s:%s..%s", f.Year, f.Month, mode.From, mode.To)
	case SingleDay:
		return fmt.Sprintf("%s-%s-%s", f.Year, f.Month, mode.Day)
	}
	return fmt.Sprintf("%s-%s-all", f.Year, f.Month)
}

type dateFilterWire struct {
	Year            Selector  `json:"year"`
	Month           Selector  `json:"month"`
	Day             Selector  `json:"day"`
	Mode            string    `json:"mode,omitempty"`
	DayFrom         *Selector `json:"dayFrom,omitempty"`
	DayTo           *Selector `json:"dayTo,omitempty"`
	CustomStartDate string    `json:"customStartDate,omitempty"`
	CustomEndDate   string    `json:"customEndDate,omitempty"`
}

// MarshalJSON emits the flat filter shape used by dashboard clients.
func (f DateFilter) MarshalJSON() ([]byte, error) {
	wire := dateFilterWire{Year: f.Year, Month: f.Month, Mode: f.Mode()}
	switch mode := f.Day.(type) {
	case SingleDay:
		wire.Day = mode.Day
	case DayRange:
		from, to := mode.From, mode.To
		wire.DayFrom, wire.DayTo = &from, &to
	case CustomRange:
		if mode.Start != nil {
			wire.CustomStartDate = mode.Start.UTC().Format(dayLayout)
		}
		if mode.End != nil {
			wire.CustomEndDate = mode.End.UTC().Format(dayLayout)
		}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON reads the flat filter shape. Unknown modes fall back to
// single-day matching.
func (f *DateFilter) UnmarshalJSON(data []byte) error {
	var wire dateFilterWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	out := DateFilter{Year: wire.Year, Month: wire.Month}
	switch wire.Mode {
	case "range":
		var r DayRange
		if wire.DayFrom != nil {
			r.From = *wire.DayFrom
		}
		if wire.DayTo != nil {
			r.To = *wire.DayTo
		}
		out.Day = r
	case "custom":
		start, err := parseBound(wire.CustomStartDate)
		if err != nil {
			return err
		}
		end, err := parseBound(wire.CustomEndDate)
		if err != nil {
			return err
		}
		out.Day = CustomRange{Start: start, End: end}
	default:
		out.Day = SingleDay{Day: wire.Day}
	}
	*f = out
	return nil
}

// ParseDay parses an ISO date or RFC3339 timestamp into its UTC day.
func ParseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dayLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("retail: parse day %q: %w", raw, err)
	}
	return truncateDay(t), nil
}

func parseBound(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := ParseDay(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatBound(t *time.Time) string {
	if t == nil {
		return "*"
	}
	return t.UTC().Format(dayLayout)
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
