package access

import (
	"strings"

	"github.com/retail-cockpit/cockpit/internal/retail"
)

// Selection is the area/store/city choice made on the dashboard. Empty or
// "All" fields do not constrain.
type Selection struct {
	AreaManager string `json:"areaManager"`
	Store       string `json:"store"`
	City        string `json:"city,omitempty"`
}

func unconstrained(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "all")
}

func (s Selection) keeps(store retail.Store) bool {
	if !unconstrained(s.AreaManager) && store.AreaManager != s.AreaManager {
		return false
	}
	if !unconstrained(s.Store) && store.Name != s.Store {
		return false
	}
	if !unconstrained(s.City) && !retail.SameName(store.City, s.City) {
		return false
	}
	return true
}

// ApplyScope narrows an already role-resolved scope by the selection. It
// never adds stores the role could not see. Store managers keep only their
// own store's staff whatever the selection.
func ApplyScope(scope Scope, sel Selection, f retail.DateFilter) Scope {
	out := Scope{Role: scope.Role, Identity: scope.Identity}
	out.Stores = storesWhere(scope.Stores, sel.keeps)
	names := out.StoreNames()

	out.Employees = make([]retail.Employee, 0, len(scope.Employees))
	for _, e := range scope.Employees {
		period := e.StoreFor(f)
		if scope.Role == retail.RoleStoreManager {
			if scope.Identity.Store != "" && period == scope.Identity.Store {
				out.Employees = append(out.Employees, e)
			}
			continue
		}
		if _, ok := names[period]; ok {
			out.Employees = append(out.Employees, e)
		}
	}
	out.Metrics = metricsIn(scope.Metrics, names)
	out.Sales = salesIn(scope.Sales, names)
	return out
}
