package analytics

// summarizeKPI rolls store summaries up into the headline card.
func summarizeKPI(stores []StoreSummary) KPIData {
	var kpi KPIData
	var visitors int
	for _, s := range stores {
		kpi.TotalSales += s.TotalSales
		kpi.TotalTransactions += s.TransactionCount
		visitors += s.Visitors
	}
	kpi.AverageTransactionValue = safeDiv(kpi.TotalSales, float64(kpi.TotalTransactions))
	kpi.ConversionRate = safePercent(float64(kpi.TotalTransactions), float64(visitors))
	kpi.SalesPerVisitor = safeDiv(kpi.TotalSales, float64(visitors))
	return kpi
}
