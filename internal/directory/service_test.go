package directory

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retail-cockpit/cockpit/internal/platform/httpx"
	"github.com/retail-cockpit/cockpit/internal/retail"
)

type fakeRepo struct {
	stores      []StoreInput
	employees   []EmployeeInput
	targets     []TargetInput
	assignments []AssignmentInput
	metrics     map[string]MetricInput
	imported    map[string][]SalesLine
	err         error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{metrics: map[string]MetricInput{}, imported: map[string][]SalesLine{}}
}

func (f *fakeRepo) ListStores(context.Context) ([]retail.Store, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]retail.Store, 0, len(f.stores))
	for _, s := range f.stores {
		store := retail.Store{ID: s.ID, Name: s.Name, AreaManager: s.AreaManager, City: s.City}
		for _, t := range f.targets {
			if t.Kind == KindStore && t.Owner == s.ID {
				if store.Targets == nil {
					store.Targets = retail.TargetMap{}
				}
				store.Targets.Set(t.Year, t.Month, t.Amount)
			}
		}
		out = append(out, store)
	}
	return out, nil
}

func (f *fakeRepo) ListEmployees(context.Context) ([]retail.Employee, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]retail.Employee, 0, len(f.employees))
	for _, e := range f.employees {
		out = append(out, retail.Employee{ID: e.ID, Name: e.Name, CurrentStore: e.CurrentStore, Status: retail.Status(e.Status)})
	}
	return out, nil
}

func (f *fakeRepo) UpsertStore(_ context.Context, in StoreInput) error {
	f.stores = append(f.stores, in)
	return f.err
}

func (f *fakeRepo) UpsertEmployee(_ context.Context, in EmployeeInput) error {
	f.employees = append(f.employees, in)
	return f.err
}

func (f *fakeRepo) SetTarget(_ context.Context, in TargetInput) error {
	f.targets = append(f.targets, in)
	return f.err
}

func (f *fakeRepo) SetAssignment(_ context.Context, in AssignmentInput) error {
	f.assignments = append(f.assignments, in)
	return f.err
}

func (f *fakeRepo) ListMetrics(context.Context, time.Time, time.Time) ([]retail.DailyMetric, error) {
	return nil, f.err
}

func (f *fakeRepo) RecordMetric(_ context.Context, id string, in MetricInput) error {
	f.metrics[id] = in
	return f.err
}

func (f *fakeRepo) ListSales(context.Context, time.Time, time.Time) ([]retail.SalesTransaction, []retail.SalesTransaction, error) {
	return nil, nil, f.err
}

func (f *fakeRepo) ImportSales(_ context.Context, stream string, lines []SalesLine) (int64, error) {
	f.imported[stream] = append(f.imported[stream], lines...)
	return int64(len(lines)), f.err
}

func newTestService(repo *fakeRepo) *Service {
	svc := NewService(repo, nil)
	n := 0
	svc.newID = func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}
	return svc
}

func TestUpsertStoreValidates(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	err := svc.UpsertStore(ctx, StoreInput{ID: " S1 ", Name: "Mall One"})
	require.Error(t, err)
	assert.ErrorIs(t, err, httpx.ErrValidation)
	assert.Contains(t, err.Error(), "AreaManager failed required")
	assert.Empty(t, repo.stores)

	require.NoError(t, svc.UpsertStore(ctx, StoreInput{ID: " S1 ", Name: "Mall One", AreaManager: "Rina"}))
	require.Len(t, repo.stores, 1)
	assert.Equal(t, "S1", repo.stores[0].ID)
}

func TestUpsertEmployeeDefaultsStatus(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	require.NoError(t, svc.UpsertEmployee(ctx, EmployeeInput{ID: "E1", Name: "Huda", CurrentStore: "Mall One"}))
	assert.Equal(t, "active", repo.employees[0].Status)

	err := svc.UpsertEmployee(ctx, EmployeeInput{ID: "E2", Name: "Ali", CurrentStore: "Mall One", Status: "retired"})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	err = svc.UpsertEmployee(ctx, EmployeeInput{ID: "E3", Name: "Budi", CurrentStore: "Mall One", UserEmail: "nope"})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestTargetsValidateMonthAndAmount(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	assert.ErrorIs(t, svc.SetStoreTarget(ctx, "S1", 2025, 13, 100), httpx.ErrValidation)
	assert.ErrorIs(t, svc.SetStoreTarget(ctx, "S1", 2025, 0, 100), httpx.ErrValidation)
	assert.ErrorIs(t, svc.SetStoreTarget(ctx, "S1", 2025, 6, -1), httpx.ErrValidation)
	assert.ErrorIs(t, svc.SetStoreTarget(ctx, "", 2025, 6, 1), httpx.ErrValidation)

	require.NoError(t, svc.SetStoreTarget(ctx, "S1", 2025, 6, 0))
	require.NoError(t, svc.SetEmployeeTarget(ctx, "E1", true, 2025, 6, 5))
	require.Len(t, repo.targets, 2)
	assert.Equal(t, KindStore, repo.targets[0].Kind)
	assert.Equal(t, KindEmployeeDuvet, repo.targets[1].Kind)

	stores, err := svc.ListStores(ctx)
	require.NoError(t, err)
	assert.Empty(t, stores)
}

func TestAssignEmployee(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	require.NoError(t, svc.AssignEmployee(context.Background(), AssignmentInput{EmployeeID: "E1", Year: 2025, Month: 6, Store: "Mall Two"}))
	assert.Equal(t, []AssignmentInput{{EmployeeID: "E1", Year: 2025, Month: 6, Store: "Mall Two"}}, repo.assignments)

	err := svc.AssignEmployee(context.Background(), AssignmentInput{EmployeeID: "E1", Year: 2025, Month: 6})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestRecordMetricTruncatesDate(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	id, err := svc.RecordMetric(context.Background(), MetricInput{
		Date:       time.Date(2025, 6, 3, 17, 30, 0, 0, time.UTC),
		Store:      "Mall One",
		TotalSales: 120,
		Visitors:   4,
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), repo.metrics[id].Date)

	_, err = svc.RecordMetric(context.Background(), MetricInput{Store: "Mall One"})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestImportSales(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	line := SalesLine{BillDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Outlet: "Mall One", ItemName: "Pillow", SoldQty: 1, ItemRate: 10}

	_, err := svc.ImportSales(ctx, "returns", []SalesLine{line})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	bad := line
	bad.Outlet = ""
	_, err = svc.ImportSales(ctx, StreamGeneral, []SalesLine{line, bad})
	require.ErrorIs(t, err, httpx.ErrValidation)
	assert.Contains(t, err.Error(), "line 2")

	withID := line
	withID.ID = "L9"
	n, err := svc.ImportSales(ctx, StreamDuvet, []SalesLine{line, withID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, "id-1", repo.imported[StreamDuvet][0].ID)
	assert.Equal(t, "L9", repo.imported[StreamDuvet][1].ID)
}

func TestRepositoryErrorsAreWrapped(t *testing.T) {
	repo := newFakeRepo()
	repo.err = errors.New("db down")
	svc := newTestService(repo)

	err := svc.UpsertStore(context.Background(), StoreInput{ID: "S1", Name: "Mall One", AreaManager: "Rina"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, httpx.ErrValidation)
	assert.EqualError(t, err, "directory: upsert store: db down")
}
