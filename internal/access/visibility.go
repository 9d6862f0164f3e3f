package access

import (
	"github.com/retail-cockpit/cockpit/internal/retail"
)

// Scope is the slice of the universe visible to one profile. Sales holds the
// general and duvet streams combined.
type Scope struct {
	retail.Dataset
	Role     retail.Role
	Identity Identity
}

// Resolver applies role visibility rules.
type Resolver struct {
	matchers []IdentityMatcher
}

// NewResolver builds a Resolver with the given identity matchers, falling
// back to DefaultMatchers.
func NewResolver(matchers ...IdentityMatcher) *Resolver {
	if len(matchers) == 0 {
		matchers = DefaultMatchers
	}
	return &Resolver{matchers: matchers}
}

// Resolve narrows the universe to what the profile's role may see. A nil
// profile or unknown role sees nothing.
func (r *Resolver) Resolve(p *retail.Profile, ds retail.Dataset, f retail.DateFilter) Scope {
	if p == nil || !p.Role.Valid() {
		return Scope{}
	}
	id := ResolveIdentity(*p, ds, r.matchers)
	scope := Scope{Role: p.Role, Identity: id}

	active := make([]retail.Employee, 0, len(ds.Employees))
	for _, e := range ds.Employees {
		if e.Active() {
			active = append(active, e)
		}
	}

	switch p.Role {
	case retail.RoleAdmin, retail.RoleGeneralManager:
		scope.Stores = ds.Stores
		scope.Employees = active
		scope.Metrics = ds.Metrics
		scope.Sales = combineSales(ds.Sales, ds.DuvetSales)
		return scope
	case retail.RoleAreaManager:
		scope.Stores = storesWhere(ds.Stores, func(s retail.Store) bool {
			return id.Area != "" && s.AreaManager == id.Area
		})
	case retail.RoleStoreManager:
		if own, ok := ds.FindStore(id.Store); ok {
			scope.Stores = storesWhere(ds.Stores, func(s retail.Store) bool {
				return s.AreaManager == own.AreaManager
			})
		}
	case retail.RoleEmployee:
		scope.Stores = storesWhere(ds.Stores, func(s retail.Store) bool {
			return id.Store != "" && s.Name == id.Store
		})
	}

	names := scope.StoreNames()
	for _, e := range active {
		switch p.Role {
		case retail.RoleAreaManager:
			if _, ok := names[e.StoreFor(f)]; ok {
				scope.Employees = append(scope.Employees, e)
			}
		default:
			if id.Store != "" && e.CurrentStore == id.Store {
				scope.Employees = append(scope.Employees, e)
			}
		}
	}
	scope.Metrics = metricsIn(ds.Metrics, names)
	scope.Sales = salesIn(combineSales(ds.Sales, ds.DuvetSales), names)
	return scope
}

// Resolve applies role visibility with the default identity matchers.
func Resolve(p *retail.Profile, ds retail.Dataset, f retail.DateFilter) Scope {
	return NewResolver().Resolve(p, ds, f)
}

func combineSales(general, duvet []retail.SalesTransaction) []retail.SalesTransaction {
	out := make([]retail.SalesTransaction, 0, len(general)+len(duvet))
	out = append(out, general...)
	return append(out, duvet...)
}

func storesWhere(stores []retail.Store, keep func(retail.Store) bool) []retail.Store {
	out := make([]retail.Store, 0, len(stores))
	for _, s := range stores {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func metricsIn(rows []retail.DailyMetric, names map[string]struct{}) []retail.DailyMetric {
	out := make([]retail.DailyMetric, 0, len(rows))
	for _, m := range rows {
		if _, ok := names[m.Store]; ok {
			out = append(out, m)
		}
	}
	return out
}

func salesIn(rows []retail.SalesTransaction, names map[string]struct{}) []retail.SalesTransaction {
	out := make([]retail.SalesTransaction, 0, len(rows))
	for _, s := range rows {
		if _, ok := names[s.Outlet]; ok {
			out = append(out, s)
		}
	}
	return out
}
