package sources

import (
	"context"
	"net/http"
	"strconv"

	"github.com/retail-cockpit/cockpit/internal/retail"
)

// StoreTargets are monthly targets per store id.
type StoreTargets map[string]retail.TargetMap

// For returns the store target map, or nil.
func (t StoreTargets) For(storeID string) retail.TargetMap {
	return t[storeID]
}

// ReferenceData are targets and visitor counts maintained outside the
// snapshot. The file keys targets by year first, then store id.
type ReferenceData struct {
	Targets  StoreTargets
	Visitors []Tuple
}

type referenceWire struct {
	Targets  map[string]map[string]map[string]float64 `json:"targets"`
	Visitors []Tuple                                  `json:"visitors"`
}

func (w referenceWire) normalize() ReferenceData {
	return ReferenceData{Targets: pivotTargets(w.Targets), Visitors: w.Visitors}
}

// pivotTargets turns year → store → month into store → TargetMap. Keys that
// are not numbers are skipped.
func pivotTargets(raw map[string]map[string]map[string]float64) StoreTargets {
	out := make(StoreTargets)
	for yearKey, stores := range raw {
		year, err := strconv.Atoi(yearKey)
		if err != nil {
			continue
		}
		for storeID, months := range stores {
			for monthKey, amount := range months {
				month, err := strconv.Atoi(monthKey)
				if err != nil || month < 1 || month > 12 {
					continue
				}
				tm, ok := out[storeID]
				if !ok {
					tm = make(retail.TargetMap)
					out[storeID] = tm
				}
				tm.Set(year, month, amount)
			}
		}
	}
	return out
}

// VisitorIndex maps date then store id to a visitor count.
type VisitorIndex map[string]map[string]int

func (d ReferenceData) visitorIndex() VisitorIndex {
	idx := make(VisitorIndex)
	for _, v := range d.Visitors {
		stores, ok := idx[v.Date]
		if !ok {
			stores = make(map[string]int)
			idx[v.Date] = stores
		}
		stores[v.StoreID] += int(v.Value)
	}
	return idx
}

// Reference loads ReferenceData once from a JSON endpoint.
type Reference struct {
	loader *Loader[ReferenceData]
}

// NewReference reads url with client. An empty url yields empty data.
func NewReference(client *http.Client, url string) *Reference {
	return &Reference{loader: NewLoader(func(ctx context.Context) (ReferenceData, error) {
		if url == "" {
			return ReferenceData{}, nil
		}
		var wire referenceWire
		if err := getJSON(ctx, client, url, &wire); err != nil {
			return ReferenceData{}, err
		}
		return wire.normalize(), nil
	})}
}

// Load returns the reference data.
func (r *Reference) Load(ctx context.Context) (ReferenceData, error) {
	if r == nil {
		return ReferenceData{}, nil
	}
	return r.loader.Load(ctx)
}

// Invalidate forces the next Load to refetch.
func (r *Reference) Invalidate() {
	if r != nil {
		r.loader.Invalidate()
	}
}
