package analytics

import (
	"sort"
	"strings"

	"github.com/retail-cockpit/cockpit/internal/retail"
)

// summarizeProducts groups sales lines by product and orders them by value,
// highest first. The listed price is the first rate seen.
func summarizeProducts(sales []retail.SalesTransaction) []ProductSummary {
	index := make(map[string]int)
	out := make([]ProductSummary, 0)
	for _, line := range sales {
		key := line.ProductKey()
		if key == "" {
			key = strings.TrimSpace(line.ItemName)
		}
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, ProductSummary{
				ID:       key,
				Name:     line.ItemName,
				Alias:    line.ItemAlias,
				Category: retail.CategoryOf(line.ItemAlias, line.ItemName),
				Price:    line.ItemRate,
			})
		}
		out[i].SoldQty += line.SoldQty
		out[i].TotalValue += line.NetAmount()
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].TotalValue != out[b].TotalValue {
			return out[a].TotalValue > out[b].TotalValue
		}
		return out[a].ID < out[b].ID
	})
	return out
}
