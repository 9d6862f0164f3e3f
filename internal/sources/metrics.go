package sources

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/retail-cockpit/cockpit/internal/retail"
)

var staffPrefix = regexp.MustCompile(`^(\d+)[-_\s]+(.+)$`)

// splitStaff separates a "4661-Name" label into number and name.
func splitStaff(id, name string) (string, string) {
	name = strings.TrimSpace(name)
	if m := staffPrefix.FindStringSubmatch(name); m != nil {
		if id == "" {
			id = m[1]
		}
		name = strings.TrimSpace(m[2])
	}
	return strings.TrimSpace(id), name
}

type attribution struct {
	sales    float64
	invoices int
}

// ToDailyMetrics translates a response into metric rows. Employee rows carry
// the attributed share of a store's activity and store rows the remainder,
// so both can be summed. Employees known only for the whole window are dated
// at the range start and store rows are scaled down by their share.
func ToDailyMetrics(resp Response) []retail.DailyMetric {
	if !resp.Success {
		return nil
	}
	days := resp.ByDay
	if len(days) == 0 && len(resp.ByStore) > 0 {
		days = []DayMetrics{{Date: resp.Range.From, ByStore: resp.ByStore}}
	}
	perDay := false
	for _, d := range days {
		if len(d.ByEmployee) > 0 {
			perDay = true
			break
		}
	}
	var share map[string]float64
	if !perDay && len(resp.ByEmployee) > 0 {
		share = unattributedShare(resp)
	}

	source := resp.Debug.Source
	var out []retail.DailyMetric
	for _, day := range days {
		date, err := time.Parse(dayLayout, day.Date)
		if err != nil {
			continue
		}
		attributed := make(map[string]attribution)
		for _, e := range day.ByEmployee {
			out = append(out, employeeRow(source, date, e))
			a := attributed[e.StoreID]
			a.sales += e.SalesAmount
			a.invoices += e.Invoices
			attributed[e.StoreID] = a
		}
		for _, s := range day.ByStore {
			a := attributed[s.StoreID]
			sales, invoices := s.SalesAmount-a.sales, s.Invoices-a.invoices
			if f, ok := share[s.StoreID]; ok {
				sales = s.SalesAmount * f
				invoices = int(math.Round(float64(s.Invoices) * f))
			}
			if sales == 0 && invoices == 0 && s.Visitors == 0 {
				continue
			}
			out = append(out, retail.DailyMetric{
				ID:               strings.Join([]string{source, day.Date, s.StoreID}, ":"),
				Date:             date,
				Store:            storeLabel(s.StoreName, s.StoreID),
				TotalSales:       sales,
				TransactionCount: invoices,
				Visitors:         s.Visitors,
			})
		}
	}
	if !perDay {
		from, err := time.Parse(dayLayout, resp.Range.From)
		if err == nil {
			for _, e := range resp.ByEmployee {
				out = append(out, employeeRow(source, from, e))
			}
		}
	}
	return out
}

// unattributedShare is the fraction of each store's window sales not
// covered by employee rows.
func unattributedShare(resp Response) map[string]float64 {
	attributed := make(map[string]float64)
	for _, e := range resp.ByEmployee {
		attributed[e.StoreID] += e.SalesAmount
	}
	share := make(map[string]float64, len(resp.ByStore))
	for _, s := range resp.ByStore {
		a, ok := attributed[s.StoreID]
		if !ok {
			continue
		}
		if s.SalesAmount <= 0 {
			share[s.StoreID] = 0
			continue
		}
		share[s.StoreID] = math.Max(0, (s.SalesAmount-a)/s.SalesAmount)
	}
	return share
}

func employeeRow(source string, date time.Time, e EmployeeMetrics) retail.DailyMetric {
	id, name := splitStaff(e.EmployeeID, e.EmployeeName)
	return retail.DailyMetric{
		ID:               strings.Join([]string{source, dayOf(date), e.StoreID, e.EmployeeID}, ":"),
		Date:             date,
		Store:            storeLabel(e.StoreName, e.StoreID),
		Employee:         name,
		EmployeeID:       id,
		TotalSales:       e.SalesAmount,
		TransactionCount: e.Invoices,
	}
}

func storeLabel(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
