// Package retail holds the reference data and fact records shared by the
// visibility, aggregation and data-provider layers.
package retail

import (
	"strings"
	"time"
)

// Role identifies the visibility tier of a signed-in user.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleGeneralManager Role = "general_manager"
	RoleAreaManager    Role = "area_manager"
	RoleStoreManager   Role = "store_manager"
	RoleEmployee       Role = "employee"
)

// Roles lists every known role from widest to narrowest scope.
var Roles = []Role{RoleAdmin, RoleGeneralManager, RoleAreaManager, RoleStoreManager, RoleEmployee}

// ParseRole normalises a raw role string.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	return role, role.Valid()
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Status marks whether an employee is still working.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Store is a physical outlet owned by an area manager.
type Store struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	AreaManager string    `json:"areaManager"`
	City        string    `json:"city,omitempty"`
	Targets     TargetMap `json:"targets,omitempty"`
}

// Employee is a salesperson with an optional history of store assignments.
type Employee struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	CurrentStore string            `json:"currentStore"`
	Assignments  map[string]string `json:"assignments,omitempty"`
	Status       Status            `json:"status,omitempty"`
	EmployeeID   string            `json:"employeeId,omitempty"`
	UserID       string            `json:"userId,omitempty"`
	UserEmail    string            `json:"userEmail,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	Targets      TargetMap         `json:"targets,omitempty"`
	DuvetTargets TargetMap         `json:"duvetTargets,omitempty"`
}

// Active reports whether the employee counts towards visible staff.
func (e Employee) Active() bool {
	return e.Status != StatusInactive
}

// StoreFor resolves the store the employee worked at during the filter
// period. Assignments are only consulted when both year and month are set.
func (e Employee) StoreFor(f DateFilter) string {
	year, okYear := f.Year.Value()
	month, okMonth := f.Month.Value()
	if okYear && okMonth && len(e.Assignments) > 0 {
		if store := e.Assignments[AssignmentKey(year, month)]; store != "" {
			return store
		}
	}
	return e.CurrentStore
}

// AssignmentKey formats the "YYYY-MM" key for a 0-indexed month.
func AssignmentKey(year, month int) string {
	return time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// DailyMetric is one day of store or employee performance.
type DailyMetric struct {
	ID               string    `json:"id"`
	Date             time.Time `json:"date"`
	Store            string    `json:"store"`
	Employee         string    `json:"employee,omitempty"`
	EmployeeID       string    `json:"employeeId,omitempty"`
	TotalSales       float64   `json:"totalSales"`
	TransactionCount int       `json:"transactionCount"`
	Visitors         int       `json:"visitors,omitempty"`
	IsMonthlySummary bool      `json:"isMonthlySummary,omitempty"`
}

// Attributed reports whether the row belongs to an employee rather than the
// store as a whole.
func (m DailyMetric) Attributed() bool {
	return m.Employee != "" || m.EmployeeID != ""
}

// SalesTransaction is one sold line item.
type SalesTransaction struct {
	ID         string    `json:"id"`
	BillDate   time.Time `json:"billDate"`
	Outlet     string    `json:"outletName"`
	SalesMan   string    `json:"salesManName"`
	EmployeeID string    `json:"employeeId,omitempty"`
	ItemName   string    `json:"itemName"`
	ItemAlias  string    `json:"itemAlias"`
	ItemCode   string    `json:"itemCode,omitempty"`
	SoldQty    float64   `json:"soldQty"`
	ItemRate   float64   `json:"itemRate"`
}

// NetAmount is the line value before any discounts.
func (t SalesTransaction) NetAmount() float64 {
	return t.SoldQty * t.ItemRate
}

// ProductKey groups lines of the same product, preferring the alias.
func (t SalesTransaction) ProductKey() string {
	if alias := strings.TrimSpace(t.ItemAlias); alias != "" {
		return alias
	}
	return strings.TrimSpace(t.ItemCode)
}

// IsDuvet reports whether the line is a king comforter.
func (t SalesTransaction) IsDuvet() bool {
	return strings.HasPrefix(t.ItemAlias, "4") && strings.Contains(strings.ToUpper(t.ItemName), "COMFORTER")
}

// Profile is the signed-in user as supplied by the session collaborator.
type Profile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        Role   `json:"role"`
	Email       string `json:"email,omitempty"`
	EmployeeID  string `json:"employeeId,omitempty"`
	AreaManager string `json:"areaManager,omitempty"`
	Store       string `json:"store,omitempty"`
}

// Dataset is the universe of reference data and facts a pipeline runs on.
type Dataset struct {
	Stores     []Store
	Employees  []Employee
	Metrics    []DailyMetric
	Sales      []SalesTransaction
	DuvetSales []SalesTransaction
}

// StoreNames returns the set of store names in the dataset.
func (d Dataset) StoreNames() map[string]struct{} {
	names := make(map[string]struct{}, len(d.Stores))
	for _, s := range d.Stores {
		names[s.Name] = struct{}{}
	}
	return names
}

// FindStore looks a store up by display name.
func (d Dataset) FindStore(name string) (Store, bool) {
	for _, s := range d.Stores {
		if s.Name == name {
			return s, true
		}
	}
	return Store{}, false
}

// FilterByDate keeps metric rows, sales lines and duvet lines inside the
// filter window. Reference data is passed through untouched.
func (d Dataset) FilterByDate(f DateFilter) Dataset {
	out := d
	out.Metrics = make([]DailyMetric, 0, len(d.Metrics))
	for _, m := range d.Metrics {
		if f.Matches(m.Date) {
			out.Metrics = append(out.Metrics, m)
		}
	}
	out.Sales = make([]SalesTransaction, 0, len(d.Sales))
	for _, s := range d.Sales {
		if f.Matches(s.BillDate) {
			out.Sales = append(out.Sales, s)
		}
	}
	out.DuvetSales = make([]SalesTransaction, 0, len(d.DuvetSales))
	for _, s := range d.DuvetSales {
		if f.Matches(s.BillDate) {
			out.DuvetSales = append(out.DuvetSales, s)
		}
	}
	return out
}
