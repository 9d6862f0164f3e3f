package sources

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Tuple is a [date, storeId, value] entry of the snapshot and reference
// files. Store ids and values may be encoded as strings or numbers.
type Tuple struct {
	Date    string
	StoreID string
	Value   float64
}

// UnmarshalJSON decodes the positional array form.
func (t *Tuple) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) < 3 {
		return fmt.Errorf("sources: tuple has %d fields", len(raw))
	}
	date, err := looseString(raw[0])
	if err != nil {
		return err
	}
	store, err := looseString(raw[1])
	if err != nil {
		return err
	}
	value, err := looseFloat(raw[2])
	if err != nil {
		return err
	}
	*t = Tuple{Date: strings.TrimSpace(date), StoreID: strings.TrimSpace(store), Value: value}
	return nil
}

// MarshalJSON encodes the positional array form.
func (t Tuple) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{t.Date, t.StoreID, t.Value})
}

// Day parses the tuple date as a UTC day.
func (t Tuple) Day() (time.Time, bool) {
	d, err := time.Parse(dayLayout, t.Date)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func looseString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func looseFloat(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, nil
		}
		return v, nil
	}
	var v float64
	err := json.Unmarshal(raw, &v)
	return v, err
}

type cell struct {
	sales    float64
	invoices int
	visitors int
}

// ledger accumulates activity per day and store.
type ledger struct {
	days map[string]map[string]*cell
}

func newLedger() *ledger {
	return &ledger{days: make(map[string]map[string]*cell)}
}

func (l *ledger) at(date, store string) *cell {
	stores, ok := l.days[date]
	if !ok {
		stores = make(map[string]*cell)
		l.days[date] = stores
	}
	c, ok := stores[store]
	if !ok {
		c = &cell{}
		stores[store] = c
	}
	return c
}

// storeInfo resolves display data for a store id.
type storeInfo struct {
	name   func(id string) string
	city   map[string]string
	target map[string]float64
}

func (s storeInfo) metrics(id string, c cell) StoreMetrics {
	m := StoreMetrics{
		StoreID:     id,
		StoreName:   id,
		SalesAmount: c.sales,
		Invoices:    c.invoices,
		Visitors:    c.visitors,
		KPIs:        kpisFor(c.sales, c.invoices, c.visitors),
	}
	if s.name != nil {
		m.StoreName = s.name(id)
	}
	m.City = s.city[id]
	return m
}

// build rolls the ledger into per-store, per-day and total figures. Output
// is sorted by date and store id.
func (l *ledger) build(info storeInfo) ([]StoreMetrics, []DayMetrics, Totals) {
	dates := make([]string, 0, len(l.days))
	for d := range l.days {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	perStore := make(map[string]*cell)
	byDay := make([]DayMetrics, 0, len(dates))
	for _, date := range dates {
		stores := l.days[date]
		ids := sortedKeys(stores)
		day := DayMetrics{Date: date, ByStore: make([]StoreMetrics, 0, len(ids))}
		for _, id := range ids {
			c := stores[id]
			day.ByStore = append(day.ByStore, info.metrics(id, *c))
			sum, ok := perStore[id]
			if !ok {
				sum = &cell{}
				perStore[id] = sum
			}
			sum.sales += c.sales
			sum.invoices += c.invoices
			sum.visitors += c.visitors
		}
		byDay = append(byDay, day)
	}

	var totals Totals
	byStore := make([]StoreMetrics, 0, len(perStore))
	for _, id := range sortedKeys(perStore) {
		c := perStore[id]
		m := info.metrics(id, *c)
		m.Target = info.target[id]
		byStore = append(byStore, m)
		totals.SalesAmount += c.sales
		totals.Invoices += c.invoices
		totals.Visitors += c.visitors
		totals.Target += m.Target
	}
	totals.KPIs = kpisFor(totals.SalesAmount, totals.Invoices, totals.Visitors)
	return byStore, byDay, totals
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
