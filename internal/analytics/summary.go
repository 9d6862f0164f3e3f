// Package analytics turns a role-scoped retail dataset into dashboard
// summaries.
package analytics

import (
	"github.com/retail-cockpit/cockpit/internal/retail"
)

// KPIData is the headline card across every in-scope store.
type KPIData struct {
	TotalSales              float64 `json:"totalSales"`
	TotalTransactions       int     `json:"totalTransactions"`
	AverageTransactionValue float64 `json:"averageTransactionValue"`
	ConversionRate          float64 `json:"conversionRate"`
	SalesPerVisitor         float64 `json:"salesPerVisitor"`
}

// StoreSummary is a store with its period figures.
type StoreSummary struct {
	retail.Store
	TotalSales        float64 `json:"totalSales"`
	TransactionCount  int     `json:"transactionCount"`
	Visitors          int     `json:"visitors"`
	ATV               float64 `json:"atv"`
	VisitorRate       float64 `json:"visitorRate"`
	EffectiveTarget   float64 `json:"effectiveTarget"`
	TargetAchievement float64 `json:"targetAchievement"`
	SalesPerVisitor   float64 `json:"salesPerVisitor"`
}

// EmployeeSummary is an employee with their period figures. Store is the
// store worked at during the period, which may differ from CurrentStore.
type EmployeeSummary struct {
	retail.Employee
	Store             string  `json:"store"`
	TotalSales        float64 `json:"totalSales"`
	TotalTransactions int     `json:"totalTransactions"`
	ATV               float64 `json:"atv"`
	EffectiveTarget   float64 `json:"effectiveTarget"`
	Achievement       float64 `json:"achievement"`
	Virtual           bool    `json:"virtual,omitempty"`
}

// ProductSummary is one product's sold quantity and value.
type ProductSummary struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Alias      string          `json:"alias"`
	Category   retail.Category `json:"category"`
	Price      float64         `json:"price"`
	SoldQty    float64         `json:"soldQty"`
	TotalValue float64         `json:"totalValue"`
}

// CommissionEmployee is an employee row of the commission table. Rates are
// percentages.
type CommissionEmployee struct {
	EmployeeSummary
	FinalCommissionRate float64 `json:"finalCommissionRate"`
	CommissionAmount    float64 `json:"commissionAmount"`
}

// CommissionStoreData groups commission rows under their store.
type CommissionStoreData struct {
	Name           string               `json:"name"`
	Achievement    float64              `json:"achievement"`
	CommissionRate float64              `json:"commissionRate"`
	Employees      []CommissionEmployee `json:"employees"`
}

// TrendPoint is one bar of the sales-vs-target chart.
type TrendPoint struct {
	Name   string  `json:"name"`
	Sales  float64 `json:"Sales"`
	Target float64 `json:"Target"`
}

// Result is everything the dashboard renders for one request.
type Result struct {
	KPI        KPIData                      `json:"kpiData"`
	Stores     []StoreSummary               `json:"storeSummary"`
	Employees  map[string][]EmployeeSummary `json:"employeeSummary"`
	Products   []ProductSummary             `json:"productSummary"`
	Duvets     DuvetSummary                 `json:"duvetSummary"`
	DuvetTiers []DuvetTier                  `json:"duvetTiers"`
	Commission []CommissionStoreData        `json:"commissionData"`
	Trend      []TrendPoint                 `json:"salesPerformance"`
}

// Summarize runs every aggregation stage over an already scoped dataset.
func Summarize(ds retail.Dataset, f retail.DateFilter) Result {
	employees, claimed := summarizeEmployees(ds, f)
	stores := summarizeStores(ds, employees, claimed, f)
	duvets, tiers := summarizeDuvets(ds.Sales)
	return Result{
		KPI:        summarizeKPI(stores),
		Stores:     stores,
		Employees:  employees,
		Products:   summarizeProducts(ds.Sales),
		Duvets:     duvets,
		DuvetTiers: tiers,
		Commission: summarizeCommission(stores, employees),
		Trend:      buildTrend(ds, f),
	}
}
