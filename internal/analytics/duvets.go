package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/retail-cockpit/cockpit/internal/retail"
)

// DuvetTier is a price band derived from the prices actually sold.
type DuvetTier struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// DuvetStore counts duvet units per tier for one store.
type DuvetStore struct {
	Name  string
	Tiers map[string]float64
	Total float64
}

// MarshalJSON flattens tiers next to name and total:
// {"name": "Olaya", "Low Value (199-399)": 3, "total": 3}.
func (d DuvetStore) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(d.Tiers)+2)
	for label, count := range d.Tiers {
		flat[label] = count
	}
	flat["name"] = d.Name
	flat["total"] = d.Total
	return json.Marshal(flat)
}

// DuvetSummary maps store name to its tier counts.
type DuvetSummary map[string]DuvetStore

var tierNames = []string{"Low Value", "Medium Value", "High Value"}

// priceTiers splits the distinct prices into up to three bands of roughly
// equal size. Empty bands are omitted.
func priceTiers(prices []float64) []DuvetTier {
	distinct := make(map[float64]struct{}, len(prices))
	for _, p := range prices {
		distinct[p] = struct{}{}
	}
	sorted := make([]float64, 0, len(distinct))
	for p := range distinct {
		sorted = append(sorted, p)
	}
	sort.Float64s(sorted)

	n := len(sorted)
	if n == 0 {
		return nil
	}
	lowEnd := (n + 2) / 3
	medEnd := lowEnd + (n-lowEnd+1)/2
	bounds := [][2]int{{0, lowEnd}, {lowEnd, medEnd}, {medEnd, n}}

	tiers := make([]DuvetTier, 0, 3)
	for i, b := range bounds {
		if b[0] >= b[1] {
			continue
		}
		lo, hi := sorted[b[0]], sorted[b[1]-1]
		tiers = append(tiers, DuvetTier{Label: tierLabel(tierNames[i], lo, hi), Min: lo, Max: hi})
	}
	return tiers
}

func tierLabel(name string, lo, hi float64) string {
	if lo == hi {
		return fmt.Sprintf("%s (%s)", name, formatPrice(lo))
	}
	return fmt.Sprintf("%s (%s-%s)", name, formatPrice(lo), formatPrice(hi))
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func tierFor(tiers []DuvetTier, price float64) DuvetTier {
	for _, t := range tiers {
		if price <= t.Max {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

// summarizeDuvets counts king comforter units per store and price tier. One
// tier set is derived across all stores.
func summarizeDuvets(sales []retail.SalesTransaction) (DuvetSummary, []DuvetTier) {
	lines := make([]retail.SalesTransaction, 0)
	prices := make([]float64, 0)
	for _, line := range sales {
		if line.IsDuvet() {
			lines = append(lines, line)
			prices = append(prices, line.ItemRate)
		}
	}
	summary := make(DuvetSummary)
	tiers := priceTiers(prices)
	if len(tiers) == 0 {
		return summary, []DuvetTier{}
	}
	for _, line := range lines {
		entry, ok := summary[line.Outlet]
		if !ok {
			entry = DuvetStore{Name: line.Outlet, Tiers: make(map[string]float64, len(tiers))}
			for _, t := range tiers {
				entry.Tiers[t.Label] = 0
			}
		}
		tier := tierFor(tiers, line.ItemRate)
		entry.Tiers[tier.Label] += line.SoldQty
		entry.Total += line.SoldQty
		summary[line.Outlet] = entry
	}
	return summary, tiers
}
