package analytics

import (
	"strings"

	"github.com/retail-cockpit/cockpit/internal/retail"
)

const unknownStore = "Unknown Store"

// belongsTo matches a metric row by employee number first and by name
// otherwise. Blank keys never match.
func belongsTo(m retail.DailyMetric, e retail.Employee) bool {
	if m.EmployeeID != "" && e.EmployeeID != "" {
		return m.EmployeeID == e.EmployeeID
	}
	return m.Employee != "" && m.Employee == e.Name
}

// summarizeEmployees also reports which metric rows an employee summary
// claimed, indexed like ds.Metrics.
func summarizeEmployees(ds retail.Dataset, f retail.DateFilter) (map[string][]EmployeeSummary, []bool) {
	out := make(map[string][]EmployeeSummary)
	inScope := ds.StoreNames()
	seen := make(map[string]struct{}, len(ds.Employees))
	claimed := make([]bool, len(ds.Metrics))

	for _, e := range ds.Employees {
		store := e.StoreFor(f)
		if _, ok := inScope[store]; !ok {
			continue
		}
		var sales float64
		var tx int
		for i, m := range ds.Metrics {
			if claimed[i] || !belongsTo(m, e) {
				continue
			}
			claimed[i] = true
			sales += m.TotalSales
			tx += m.TransactionCount
		}
		target := retail.EffectiveTarget(e.Targets, f)
		out[store] = append(out[store], EmployeeSummary{
			Employee:          e,
			Store:             store,
			TotalSales:        sales,
			TotalTransactions: tx,
			ATV:               safeDiv(sales, float64(tx)),
			EffectiveTarget:   target,
			Achievement:       safePercent(sales, target),
		})
		seen[e.Name] = struct{}{}
	}

	for _, v := range virtualEmployees(ds.Sales, seen) {
		out[v.Store] = append(out[v.Store], v)
	}
	return out, claimed
}

// virtualEmployees builds zero-target entries for salespeople that appear on
// sales lines but have no employee record in scope.
func virtualEmployees(sales []retail.SalesTransaction, seen map[string]struct{}) []EmployeeSummary {
	var order []string
	byName := make(map[string]*EmployeeSummary)
	for _, line := range sales {
		name := strings.TrimSpace(line.SalesMan)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		v, ok := byName[name]
		if !ok {
			store := line.Outlet
			if store == "" {
				store = unknownStore
			}
			v = &EmployeeSummary{
				Employee: retail.Employee{
					ID:           strings.Join(strings.Fields(name), "_"),
					Name:         name,
					CurrentStore: store,
					Status:       retail.StatusActive,
				},
				Store:   store,
				Virtual: true,
			}
			byName[name] = v
			order = append(order, name)
		}
		v.TotalSales += line.NetAmount()
		v.TotalTransactions++
	}

	out := make([]EmployeeSummary, 0, len(order))
	for _, name := range order {
		v := byName[name]
		v.ATV = safeDiv(v.TotalSales, float64(v.TotalTransactions))
		out = append(out, *v)
	}
	return out
}
