package sources

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/retail-cockpit/cockpit/internal/retail"
)

// StoreMeta describes a store in the snapshot.
type StoreMeta struct {
	Manager   string `json:"manager"`
	StoreName string `json:"store_name"`
	Outlet    string `json:"outlet"`
	City      string `json:"city"`
}

// Snapshot is the frozen export of historical activity.
type Snapshot struct {
	StoreMeta    map[string]StoreMeta
	Sales        []Tuple
	Visitors     []Tuple
	Transactions []Tuple
	Targets      StoreTargets
}

type snapshotWire struct {
	StoreMeta    map[string]StoreMeta                     `json:"store_meta"`
	Sales        []Tuple                                  `json:"sales"`
	Visitors     []Tuple                                  `json:"visitors"`
	Transactions []Tuple                                  `json:"transactions"`
	Targets      map[string]map[string]map[string]float64 `json:"targets"`
}

func (w snapshotWire) normalize() Snapshot {
	return Snapshot{
		StoreMeta:    w.StoreMeta,
		Sales:        w.Sales,
		Visitors:     w.Visitors,
		Transactions: w.Transactions,
		Targets:      pivotTargets(w.Targets),
	}
}

// Legacy answers requests from the snapshot. It never reports employees.
type Legacy struct {
	snapshot  *Loader[Snapshot]
	reference *Reference
	mapping   *Mapping
	logger    *slog.Logger
}

// NewLegacy reads the snapshot at url with client.
func NewLegacy(client *http.Client, url string, reference *Reference, mapping *Mapping, logger *slog.Logger) *Legacy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Legacy{
		snapshot: NewLoader(func(ctx context.Context) (Snapshot, error) {
			var wire snapshotWire
			if err := getJSON(ctx, client, url, &wire); err != nil {
				return Snapshot{}, err
			}
			return wire.normalize(), nil
		}),
		reference: reference,
		mapping:   mapping,
		logger:    logger,
	}
}

// Invalidate drops the memoized snapshot.
func (l *Legacy) Invalidate() {
	l.snapshot.Invalidate()
}

// Metrics aggregates snapshot tuples inside the request window.
func (l *Legacy) Metrics(ctx context.Context, req Request) Response {
	if err := req.Validate(); err != nil {
		return Failed(SourceLegacy, req, err)
	}
	snap, err := l.snapshot.Load(ctx)
	if err != nil {
		l.logger.WarnContext(ctx, "legacy snapshot unavailable", slog.Any("error", err))
		return Failed(SourceLegacy, req, err)
	}
	var notes []string
	ref, err := l.reference.Load(ctx)
	if err != nil {
		l.logger.WarnContext(ctx, "reference data unavailable", slog.Any("error", err))
		notes = append(notes, "reference unavailable")
	}
	names, err := l.mapping.Load(ctx)
	if err != nil {
		l.logger.WarnContext(ctx, "store mapping unavailable", slog.Any("error", err))
		notes = append(notes, "store mapping unavailable")
	}

	from, to := req.Window()
	keep := func(t Tuple) bool {
		if req.StoreID != "" && t.StoreID != req.StoreID {
			return false
		}
		day, ok := t.Day()
		return ok && !day.Before(from) && !day.After(to)
	}

	led := newLedger()
	for _, t := range snap.Sales {
		if keep(t) {
			led.at(t.Date, t.StoreID).sales += t.Value
		}
	}
	for _, t := range snap.Transactions {
		if keep(t) {
			led.at(t.Date, t.StoreID).invoices += int(t.Value)
		}
	}
	refVisitors := ref.visitorIndex()
	for _, t := range snap.Visitors {
		if _, overridden := refVisitors[t.Date][t.StoreID]; overridden {
			continue
		}
		if keep(t) {
			led.at(t.Date, t.StoreID).visitors += int(t.Value)
		}
	}
	mergeVisitors(led, ref.Visitors, keep)

	info := storeInfo{
		name: func(id string) string {
			if n := names.Name(id); n != "" {
				return n
			}
			meta := snap.StoreMeta[id]
			if meta.StoreName != "" {
				return meta.StoreName
			}
			if meta.Outlet != "" {
				return meta.Outlet
			}
			return id
		},
		city:   make(map[string]string, len(snap.StoreMeta)),
		target: targetsFor(led, req.Filter(), ref.Targets, snap.Targets),
	}
	for id, meta := range snap.StoreMeta {
		info.city[id] = meta.City
	}

	byStore, byDay, totals := led.build(info)
	return Response{
		Success:    true,
		Range:      rangeOf(req),
		ByStore:    byStore,
		ByEmployee: []EmployeeMetrics{},
		ByDay:      byDay,
		Totals:     totals,
		Debug:      Debug{Source: SourceLegacy, Fetched: len(snap.Sales), Notes: notes},
	}
}

// mergeVisitors adds reference visitor counts to the ledger. Snapshot counts
// for the same day and store must already be skipped.
func mergeVisitors(led *ledger, visitors []Tuple, keep func(Tuple) bool) {
	for _, t := range visitors {
		if keep(t) {
			led.at(t.Date, t.StoreID).visitors += int(t.Value)
		}
	}
}

// targetsFor resolves each store's target for the filter. A positive
// reference target wins over the fallback.
func targetsFor(led *ledger, f retail.DateFilter, primary, fallback StoreTargets) map[string]float64 {
	out := make(map[string]float64)
	for _, stores := range led.days {
		for id := range stores {
			if _, done := out[id]; done {
				continue
			}
			target := retail.EffectiveTarget(primary.For(id), f)
			if target <= 0 {
				target = retail.EffectiveTarget(fallback.For(id), f)
			}
			out[id] = target
		}
	}
	return out
}

func dayOf(t time.Time) string {
	return t.UTC().Format(dayLayout)
}
