// Package export renders dashboard results as downloadable tables.
package export

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/retail-cockpit/cockpit/internal/analytics"
)

// Table is one named grid of the export. Cells hold strings or numbers.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Tables flattens a dashboard result into its exported sections.
func Tables(res analytics.Result, period string) []Table {
	return []Table{
		kpiTable(res.KPI, period),
		storeTable(res.Stores),
		employeeTable(res.Employees),
		productTable(res.Products),
		commissionTable(res.Commission),
		trendTable(res.Trend),
	}
}

func money(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func kpiTable(kpi analytics.KPIData, period string) Table {
	return Table{
		Name:   "KPI",
		Header: []string{"Metric", "Value"},
		Rows: [][]any{
			{"Period", period},
			{"Total Sales", money(kpi.TotalSales)},
			{"Transactions", kpi.TotalTransactions},
			{"Average Transaction Value", money(kpi.AverageTransactionValue)},
			{"Conversion Rate", money(kpi.ConversionRate)},
			{"Sales per Visitor", money(kpi.SalesPerVisitor)},
		},
	}
}

func storeTable(stores []analytics.StoreSummary) Table {
	t := Table{
		Name:   "Stores",
		Header: []string{"Store", "Area Manager", "City", "Sales", "Transactions", "Visitors", "ATV", "Visitor Rate", "Target", "Achievement"},
	}
	for _, s := range stores {
		t.Rows = append(t.Rows, []any{
			s.Name, s.AreaManager, s.City, money(s.TotalSales), s.TransactionCount, s.Visitors,
			money(s.ATV), money(s.VisitorRate), money(s.EffectiveTarget), money(s.TargetAchievement),
		})
	}
	return t
}

func employeeTable(byStore map[string][]analytics.EmployeeSummary) Table {
	t := Table{
		Name:   "Employees",
		Header: []string{"Store", "Employee", "Employee No", "Sales", "Transactions", "ATV", "Target", "Achievement"},
	}
	stores := make([]string, 0, len(byStore))
	for store := range byStore {
		stores = append(stores, store)
	}
	sort.Strings(stores)
	for _, store := range stores {
		for _, e := range byStore[store] {
			t.Rows = append(t.Rows, []any{
				store, e.Name, e.EmployeeID, money(e.TotalSales), e.TotalTransactions,
				money(e.ATV), money(e.EffectiveTarget), money(e.Achievement),
			})
		}
	}
	return t
}

func productTable(products []analytics.ProductSummary) Table {
	t := Table{
		Name:   "Products",
		Header: []string{"Alias", "Product", "Category", "Price", "Sold Qty", "Value"},
	}
	for _, p := range products {
		t.Rows = append(t.Rows, []any{p.Alias, p.Name, string(p.Category), money(p.Price), p.SoldQty, money(p.TotalValue)})
	}
	return t
}

func commissionTable(stores []analytics.CommissionStoreData) Table {
	t := Table{
		Name:   "Commission",
		Header: []string{"Store", "Store Achievement", "Store Rate", "Employee", "Sales", "Achievement", "Rate", "Commission"},
	}
	for _, s := range stores {
		for _, e := range s.Employees {
			t.Rows = append(t.Rows, []any{
				s.Name, money(s.Achievement), s.CommissionRate, e.Name, money(e.TotalSales),
				money(e.Achievement), e.FinalCommissionRate, money(e.CommissionAmount),
			})
		}
	}
	return t
}

func trendTable(points []analytics.TrendPoint) Table {
	t := Table{Name: "Trend", Header: []string{"Period", "Sales", "Target"}}
	for _, p := range points {
		t.Rows = append(t.Rows, []any{p.Name, money(p.Sales), money(p.Target)})
	}
	return t
}
