package analytics

import (
	"github.com/retail-cockpit/cockpit/internal/retail"
)

// summarizeStores totals each store from its employee summaries plus every
// metric row of the store that no summary claimed. Unclaimed rows include
// unattributed store rows and staff outside the viewer's scope, inactive or
// unknown to the directory. Visitors come from every row.
func summarizeStores(ds retail.Dataset, employees map[string][]EmployeeSummary, claimed []bool, f retail.DateFilter) []StoreSummary {
	out := make([]StoreSummary, 0, len(ds.Stores))
	for _, store := range ds.Stores {
		var sales float64
		var tx, visitors int
		for _, e := range employees[store.Name] {
			sales += e.TotalSales
			tx += e.TotalTransactions
		}
		for i, m := range ds.Metrics {
			if m.Store != store.Name {
				continue
			}
			visitors += m.Visitors
			if i < len(claimed) && claimed[i] {
				continue
			}
			sales += m.TotalSales
			tx += m.TransactionCount
		}
		target := retail.EffectiveTarget(store.Targets, f)
		out = append(out, StoreSummary{
			Store:             store,
			TotalSales:        sales,
			TransactionCount:  tx,
			Visitors:          visitors,
			ATV:               safeDiv(sales, float64(tx)),
			VisitorRate:       safePercent(float64(tx), float64(visitors)),
			EffectiveTarget:   target,
			TargetAchievement: safePercent(sales, target),
			SalesPerVisitor:   safeDiv(sales, float64(visitors)),
		})
	}
	return out
}
