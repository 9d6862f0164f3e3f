// Package directory keeps the store and employee reference data, their
// targets and manually entered facts.
package directory

import (
	"time"
)

// Target kinds stored in the targets table.
const (
	KindStore         = "store"
	KindEmployee      = "employee"
	KindEmployeeDuvet = "employee_duvet"
)

// Sales line streams.
const (
	StreamGeneral = "general"
	StreamDuvet   = "duvet"
)

// StoreInput creates or replaces a store.
type StoreInput struct {
	ID          string `json:"id" validate:"required,max=64"`
	Name        string `json:"name" validate:"required,max=200"`
	AreaManager string `json:"areaManager" validate:"required,max=200"`
	City        string `json:"city" validate:"max=120"`
}

// EmployeeInput creates or replaces an employee.
type EmployeeInput struct {
	ID           string `json:"id" validate:"required,max=64"`
	Name         string `json:"name" validate:"required,max=200"`
	CurrentStore string `json:"currentStore" validate:"required,max=200"`
	Status       string `json:"status" validate:"omitempty,oneof=active inactive"`
	EmployeeID   string `json:"employeeId" validate:"max=64"`
	UserID       string `json:"userId" validate:"max=64"`
	UserEmail    string `json:"userEmail" validate:"omitempty,email"`
	Phone        string `json:"phone" validate:"max=40"`
}

// TargetInput sets one monthly target. Month is 1-indexed.
type TargetInput struct {
	Owner  string  `json:"owner" validate:"required"`
	Kind   string  `json:"kind" validate:"required,oneof=store employee employee_duvet"`
	Year   int     `json:"year" validate:"required,min=2000,max=2100"`
	Month  int     `json:"month" validate:"required,min=1,max=12"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

// AssignmentInput records where an employee worked in a month. Month is
// 1-indexed.
type AssignmentInput struct {
	EmployeeID string `json:"employeeId" validate:"required"`
	Year       int    `json:"year" validate:"required,min=2000,max=2100"`
	Month      int    `json:"month" validate:"required,min=1,max=12"`
	Store      string `json:"store" validate:"required"`
}

// MetricInput is a manually entered day of store or employee performance.
type MetricInput struct {
	Date             time.Time `json:"date" validate:"required"`
	Store            string    `json:"store" validate:"required"`
	Employee         string    `json:"employee"`
	EmployeeID       string    `json:"employeeId"`
	TotalSales       float64   `json:"totalSales" validate:"gte=0"`
	TransactionCount int       `json:"transactionCount" validate:"gte=0"`
	Visitors         int       `json:"visitors" validate:"gte=0"`
	IsMonthlySummary bool      `json:"isMonthlySummary"`
}

// SalesLine is an imported sold line item.
type SalesLine struct {
	ID         string    `json:"id"`
	BillDate   time.Time `json:"billDate" validate:"required"`
	Outlet     string    `json:"outletName" validate:"required"`
	SalesMan   string    `json:"salesManName"`
	EmployeeID string    `json:"employeeId"`
	ItemName   string    `json:"itemName" validate:"required"`
	ItemAlias  string    `json:"itemAlias"`
	ItemCode   string    `json:"itemCode"`
	SoldQty    float64   `json:"soldQty"`
	ItemRate   float64   `json:"itemRate" validate:"gte=0"`
}
