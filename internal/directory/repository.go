package directory

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retail-cockpit/cockpit/internal/platform/db"
	"github.com/retail-cockpit/cockpit/internal/retail"
)

//go:embed schema.sql
var schema string

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates missing tables.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("directory: ensure schema: %w", err)
	}
	return nil
}

// ListStores returns every store with its monthly targets.
func (r *Repository) ListStores(ctx context.Context) ([]retail.Store, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, area_manager, city FROM stores ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stores []retail.Store
	for rows.Next() {
		var s retail.Store
		if err := rows.Scan(&s.ID, &s.Name, &s.AreaManager, &s.City); err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	targets, err := r.targets(ctx, KindStore)
	if err != nil {
		return nil, err
	}
	for i := range stores {
		stores[i].Targets = targets[stores[i].ID]
	}
	return stores, nil
}

// ListEmployees returns every employee with targets and assignments.
func (r *Repository) ListEmployees(ctx context.Context) ([]retail.Employee, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, current_store, status, employee_no, user_id, user_email, phone
		FROM employees ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var employees []retail.Employee
	for rows.Next() {
		var e retail.Employee
		var status string
		if err := rows.Scan(&e.ID, &e.Name, &e.CurrentStore, &status, &e.EmployeeID, &e.UserID, &e.UserEmail, &e.Phone); err != nil {
			return nil, err
		}
		e.Status = retail.Status(status)
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sales, err := r.targets(ctx, KindEmployee)
	if err != nil {
		return nil, err
	}
	duvets, err := r.targets(ctx, KindEmployeeDuvet)
	if err != nil {
		return nil, err
	}
	assignments, err := r.assignments(ctx)
	if err != nil {
		return nil, err
	}
	for i := range employees {
		id := employees[i].ID
		employees[i].Targets = sales[id]
		employees[i].DuvetTargets = duvets[id]
		employees[i].Assignments = assignments[id]
	}
	return employees, nil
}

func (r *Repository) targets(ctx context.Context, kind string) (map[string]retail.TargetMap, error) {
	rows, err := r.pool.Query(ctx, `SELECT owner, year, month, amount FROM targets WHERE kind = $1`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]retail.TargetMap)
	for rows.Next() {
		var (
			owner       string
			year, month int
			amount      float64
		)
		if err := rows.Scan(&owner, &year, &month, &amount); err != nil {
			return nil, err
		}
		tm, ok := out[owner]
		if !ok {
			tm = make(retail.TargetMap)
			out[owner] = tm
		}
		tm.Set(year, month, amount)
	}
	return out, rows.Err()
}

func (r *Repository) assignments(ctx context.Context) (map[string]map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT employee_id, period, store FROM assignments`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]map[string]string)
	for rows.Next() {
		var employee, period, store string
		if err := rows.Scan(&employee, &period, &store); err != nil {
			return nil, err
		}
		if out[employee] == nil {
			out[employee] = make(map[string]string)
		}
		out[employee][period] = store
	}
	return out, rows.Err()
}

// UpsertStore inserts or replaces a store.
func (r *Repository) UpsertStore(ctx context.Context, in StoreInput) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO stores (id, name, area_manager, city)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, area_manager = EXCLUDED.area_manager,
			city = EXCLUDED.city, updated_at = now()`,
		in.ID, in.Name, in.AreaManager, in.City)
	return err
}

// UpsertEmployee inserts or replaces an employee.
func (r *Repository) UpsertEmployee(ctx context.Context, in EmployeeInput) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO employees (id, name, current_store, status, employee_no, user_id, user_email, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, current_store = EXCLUDED.current_store,
			status = EXCLUDED.status, employee_no = EXCLUDED.employee_no, user_id = EXCLUDED.user_id,
			user_email = EXCLUDED.user_email, phone = EXCLUDED.phone, updated_at = now()`,
		in.ID, in.Name, in.CurrentStore, in.Status, in.EmployeeID, in.UserID, in.UserEmail, in.Phone)
	return err
}

// SetTarget stores one monthly target.
func (r *Repository) SetTarget(ctx context.Context, in TargetInput) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO targets (owner, kind, year, month, amount)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner, kind, year, month) DO UPDATE SET amount = EXCLUDED.amount`,
		in.Owner, in.Kind, in.Year, in.Month, in.Amount)
	return err
}

// SetAssignment records the store an employee worked at in a month.
func (r *Repository) SetAssignment(ctx context.Context, in AssignmentInput) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO assignments (employee_id, period, store)
		VALUES ($1, $2, $3)
		ON CONFLICT (employee_id, period) DO UPDATE SET store = EXCLUDED.store`,
		in.EmployeeID, retail.AssignmentKey(in.Year, in.Month-1), in.Store)
	return err
}

// dateArg passes zero times as NULL so the bound stays open.
func dateArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format("2006-01-02")
}

// ListMetrics returns manual metric rows inside the inclusive window.
func (r *Repository) ListMetrics(ctx context.Context, from, to time.Time) ([]retail.DailyMetric, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, day, store, employee, employee_no, total_sales, transaction_count,
			visitors, is_monthly_summary
		FROM daily_metrics
		WHERE ($1::date IS NULL OR day >= $1::date) AND ($2::date IS NULL OR day <= $2::date)
		ORDER BY day, id`, dateArg(from), dateArg(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []retail.DailyMetric
	for rows.Next() {
		var m retail.DailyMetric
		if err := rows.Scan(&m.ID, &m.Date, &m.Store, &m.Employee, &m.EmployeeID, &m.TotalSales,
			&m.TransactionCount, &m.Visitors, &m.IsMonthlySummary); err != nil {
			return nil, err
		}
		m.Date = m.Date.UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

// RecordMetric inserts a manual metric row under id.
func (r *Repository) RecordMetric(ctx context.Context, id string, in MetricInput) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO daily_metrics (id, day, store, employee, employee_no, total_sales,
			transaction_count, visitors, is_monthly_summary)
		VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9)`,
		id, dateArg(in.Date), in.Store, in.Employee, in.EmployeeID, in.TotalSales, in.TransactionCount,
		in.Visitors, in.IsMonthlySummary)
	return err
}

// ListSales returns sales lines inside the inclusive window split by stream.
func (r *Repository) ListSales(ctx context.Context, from, to time.Time) (general, duvet []retail.SalesTransaction, err error) {
	rows, err := r.pool.Query(ctx, `SELECT id, stream, bill_date, outlet, salesman, employee_no, item_name, item_alias,
			item_code, sold_qty, item_rate
		FROM sales_lines
		WHERE ($1::date IS NULL OR bill_date >= $1::date) AND ($2::date IS NULL OR bill_date <= $2::date)
		ORDER BY bill_date, id`, dateArg(from), dateArg(to))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			t      retail.SalesTransaction
			stream string
		)
		if err := rows.Scan(&t.ID, &stream, &t.BillDate, &t.Outlet, &t.SalesMan, &t.EmployeeID, &t.ItemName,
			&t.ItemAlias, &t.ItemCode, &t.SoldQty, &t.ItemRate); err != nil {
			return nil, nil, err
		}
		t.BillDate = t.BillDate.UTC()
		if stream == StreamDuvet {
			duvet = append(duvet, t)
		} else {
			general = append(general, t)
		}
	}
	return general, duvet, rows.Err()
}

// ImportSales replaces lines with the same ids and copies the batch in one
// transaction.
func (r *Repository) ImportSales(ctx context.Context, stream string, lines []SalesLine) (int64, error) {
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ID
	}
	var copied int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM sales_lines WHERE id = ANY($1)`, ids); err != nil {
			return fmt.Errorf("directory: clear sales lines: %w", err)
		}
		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"sales_lines"},
			[]string{"id", "stream", "bill_date", "outlet", "salesman", "employee_no", "item_name", "item_alias",
				"item_code", "sold_qty", "item_rate"},
			pgx.CopyFromSlice(len(lines), func(i int) ([]any, error) {
				l := lines[i]
				return []any{l.ID, stream, l.BillDate.UTC(), l.Outlet, l.SalesMan, l.EmployeeID, l.ItemName,
					l.ItemAlias, l.ItemCode, l.SoldQty, l.ItemRate}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("directory: copy sales lines: %w", err)
		}
		copied = n
		return nil
	})
	return copied, err
}
