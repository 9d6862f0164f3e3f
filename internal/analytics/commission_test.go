package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retail-cockpit/cockpit/internal/retail"
)

func TestStoreCommissionTiers(t *testing.T) {
	cases := []struct {
		achievement float64
		want        string
	}{
		{120, "0.02"},
		{100, "0.02"},
		{99.99, "0.01"},
		{90, "0.01"},
		{80, "0.005"},
		{79.9, "0"},
		{0, "0"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, storeCommissionRate(tc.achievement).String(), "achievement %v", tc.achievement)
	}
}

func TestCommissionCouplesStoreAndEmployee(t *testing.T) {
	stores := []StoreSummary{
		{Store: retail.Store{Name: "Olaya"}, TargetAchievement: 95},
		{Store: retail.Store{Name: "Nakheel"}, TargetAchievement: 120},
	}
	employees := map[string][]EmployeeSummary{
		"Olaya": {{Employee: retail.Employee{Name: "Sara"}, Store: "Olaya", TotalSales: 1000, Achievement: 50}},
	}
	table := summarizeCommission(stores, employees)
	require.Len(t, table, 1, "stores without staff are skipped")

	olaya := table[0]
	assert.Equal(t, "Olaya", olaya.Name)
	assert.InDelta(t, 95, olaya.Achievement, 1e-9)
	assert.InDelta(t, 1, olaya.CommissionRate, 1e-9)
	require.Len(t, olaya.Employees, 1)
	assert.InDelta(t, 0.5, olaya.Employees[0].FinalCommissionRate, 1e-9)
	assert.InDelta(t, 5, olaya.Employees[0].CommissionAmount, 1e-9)
	assert.Equal(t, "Sara", olaya.Employees[0].Name)
}

func TestCommissionMonotonic(t *testing.T) {
	sales := 2500.0
	prev := -1.0
	for _, storeAch := range []float64{50, 80, 85, 90, 99, 100, 150} {
		for _, empAch := range []float64{0, 25, 50, 100, 140} {
			_, amount := commissionFor(storeCommissionRate(storeAch), EmployeeSummary{TotalSales: sales, Achievement: empAch})
			v := amount.InexactFloat64()
			assert.GreaterOrEqual(t, v, 0.0)
			if empAch == 140 {
				assert.GreaterOrEqual(t, v, prev)
				prev = v
			}
		}
	}
}
