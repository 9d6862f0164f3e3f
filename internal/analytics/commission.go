package analytics

import (
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)

	commissionTiers = []struct {
		minAchievement float64
		rate           decimal.Decimal
	}{
		{100, decimal.RequireFromString("0.02")},
		{90, decimal.RequireFromString("0.01")},
		{80, decimal.RequireFromString("0.005")},
	}
)

// storeCommissionRate returns the store tier rate as a fraction.
func storeCommissionRate(achievement float64) decimal.Decimal {
	for _, tier := range commissionTiers {
		if achievement >= tier.minAchievement {
			return tier.rate
		}
	}
	return decimal.Zero
}

// commissionFor scales the store rate by the employee's own achievement and
// applies it to their sales. The amount is rounded to cents.
func commissionFor(storeRate decimal.Decimal, e EmployeeSummary) (rate, amount decimal.Decimal) {
	rate = storeRate.Mul(decimal.NewFromFloat(e.Achievement)).Div(hundred)
	amount = decimal.NewFromFloat(e.TotalSales).Mul(rate).Round(2)
	return rate, amount
}

// summarizeCommission builds the commission table for stores that have at
// least one employee summary. Store and employee rates are percentages.
func summarizeCommission(stores []StoreSummary, employees map[string][]EmployeeSummary) []CommissionStoreData {
	out := make([]CommissionStoreData, 0, len(stores))
	for _, store := range stores {
		staff := employees[store.Name]
		if len(staff) == 0 {
			continue
		}
		storeRate := storeCommissionRate(store.TargetAchievement)
		row := CommissionStoreData{
			Name:           store.Name,
			Achievement:    store.TargetAchievement,
			CommissionRate: storeRate.Mul(hundred).InexactFloat64(),
			Employees:      make([]CommissionEmployee, 0, len(staff)),
		}
		for _, e := range staff {
			rate, amount := commissionFor(storeRate, e)
			row.Employees = append(row.Employees, CommissionEmployee{
				EmployeeSummary:     e,
				FinalCommissionRate: rate.Mul(hundred).InexactFloat64(),
				CommissionAmount:    amount.InexactFloat64(),
			})
		}
		out = append(out, row)
	}
	return out
}
