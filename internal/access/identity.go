// Package access narrows the retail universe to what a signed-in user may see.
package access

import (
	"github.com/retail-cockpit/cockpit/internal/retail"
)

// IdentityMatcher decides whether an employee record represents the profile.
type IdentityMatcher struct {
	Name  string
	Match func(p retail.Profile, e retail.Employee) bool
}

// ByEmployeeID matches the HR employee number.
var ByEmployeeID = IdentityMatcher{
	Name: "employee_id",
	Match: func(p retail.Profile, e retail.Employee) bool {
		return p.EmployeeID != "" && e.EmployeeID == p.EmployeeID
	},
}

// ByUserID matches the account id linked on the employee record.
var ByUserID = IdentityMatcher{
	Name: "user_id",
	Match: func(p retail.Profile, e retail.Employee) bool {
		return p.ID != "" && e.UserID == p.ID
	},
}

// ByEmail matches the account email linked on the employee record.
var ByEmail = IdentityMatcher{
	Name: "email",
	Match: func(p retail.Profile, e retail.Employee) bool {
		return retail.SameName(p.Email, e.UserEmail)
	},
}

// DefaultMatchers is the resolution order used when none is configured.
var DefaultMatchers = []IdentityMatcher{ByEmployeeID, ByUserID, ByEmail}

// Identity is the store and area a profile operates in.
type Identity struct {
	Store     string
	Area      string
	Employee  *retail.Employee
	MatchedBy string
}

// ResolveIdentity fills the store and area missing from a profile. Matchers
// are tried in order; the first employee accepted by a matcher wins.
func ResolveIdentity(p retail.Profile, ds retail.Dataset, matchers []IdentityMatcher) Identity {
	var id Identity
	for _, m := range matchers {
		if m.Match == nil {
			continue
		}
		for i := range ds.Employees {
			if m.Match(p, ds.Employees[i]) {
				emp := ds.Employees[i]
				id.Employee = &emp
				id.MatchedBy = m.Name
				break
			}
		}
		if id.Employee != nil {
			break
		}
	}

	id.Store = p.Store
	if id.Store == "" && id.Employee != nil {
		id.Store = id.Employee.CurrentStore
	}
	id.Area = p.AreaManager
	if id.Area == "" {
		if store, ok := ds.FindStore(id.Store); ok {
			id.Area = store.AreaManager
		}
	}
	return id
}
