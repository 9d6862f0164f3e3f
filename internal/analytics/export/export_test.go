package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/retail-cockpit/cockpit/internal/analytics"
	"github.com/retail-cockpit/cockpit/internal/retail"
)

func sampleResult() analytics.Result {
	return analytics.Result{
		KPI: analytics.KPIData{TotalSales: 1500.456, TotalTransactions: 12, AverageTransactionValue: 125.038},
		Stores: []analytics.StoreSummary{{
			Store:            retail.Store{ID: "S1", Name: "Mall One", AreaManager: "Rina"},
			TotalSales:       1500.456,
			TransactionCount: 12,
			EffectiveTarget:  3000,
		}},
		Employees: map[string][]analytics.EmployeeSummary{
			"Mall One": {{Employee: retail.Employee{ID: "E1", Name: "Huda"}, TotalSales: 900}},
		},
		Trend: []analytics.TrendPoint{{Name: "Jun", Sales: 1500.456, Target: 3000}},
	}
}

func TestWriteCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteCSV(buf, Tables(sampleResult(), "2025-06")))

	reader := csv.NewReader(bytes.NewReader(buf.Bytes()))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"KPI"}, records[0])
	assert.Equal(t, []string{"Metric", "Value"}, records[1])
	assert.Equal(t, []string{"Period", "2025-06"}, records[2])
	assert.Equal(t, []string{"Total Sales", "1500.46"}, records[3])
	assert.Equal(t, []string{"Transactions", "12"}, records[4])

	var stores []string
	for i, r := range records {
		if len(r) == 1 && r[0] == "Stores" {
			stores = records[i+2]
		}
	}
	require.NotNil(t, stores)
	assert.Equal(t, "Mall One", stores[0])
	assert.Equal(t, "1500.46", stores[3])
	assert.Equal(t, "3000", stores[8])
}

func TestWriteXLSX(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteXLSX(buf, Tables(sampleResult(), "2025-06")))

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"KPI", "Stores", "Employees", "Products", "Commission", "Trend"}, f.GetSheetList())

	rows, err := f.GetRows("Employees")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Store", rows[0][0])
	assert.Equal(t, []string{"Mall One", "Huda"}, rows[1][:2])

	rows, err = f.GetRows("Trend")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Jun", "1500.46", "3000"}, rows[1])
}

func TestWriteXLSXWithoutTables(t *testing.T) {
	assert.Error(t, WriteXLSX(&bytes.Buffer{}, nil))
}
