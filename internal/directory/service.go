package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/retail-cockpit/cockpit/internal/platform/httpx"
	"github.com/retail-cockpit/cockpit/internal/retail"
)

// RepositoryPort defines data access methods for the directory.
type RepositoryPort interface {
	ListStores(ctx context.Context) ([]retail.Store, error)
	ListEmployees(ctx context.Context) ([]retail.Employee, error)
	UpsertStore(ctx context.Context, in StoreInput) error
	UpsertEmployee(ctx context.Context, in EmployeeInput) error
	SetTarget(ctx context.Context, in TargetInput) error
	SetAssignment(ctx context.Context, in AssignmentInput) error
	ListMetrics(ctx context.Context, from, to time.Time) ([]retail.DailyMetric, error)
	RecordMetric(ctx context.Context, id string, in MetricInput) error
	ListSales(ctx context.Context, from, to time.Time) (general, duvet []retail.SalesTransaction, err error)
	ImportSales(ctx context.Context, stream string, lines []SalesLine) (int64, error)
}

// Service validates directory mutations and serves reference data.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
	logger   *slog.Logger
	newID    func() string
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, validate: validator.New(), logger: logger, newID: uuid.NewString}
}

// check runs struct validation and wraps failures in httpx.ErrValidation.
func (s *Service) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		msgs := make([]string, 0, len(fields))
		for _, fe := range fields {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", httpx.ErrValidation, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
}

// ListStores returns every store.
func (s *Service) ListStores(ctx context.Context) ([]retail.Store, error) {
	return s.repo.ListStores(ctx)
}

// ListEmployees returns every employee.
func (s *Service) ListEmployees(ctx context.Context) ([]retail.Employee, error) {
	return s.repo.ListEmployees(ctx)
}

// ListMetrics returns manual metric rows. Zero bounds are open.
func (s *Service) ListMetrics(ctx context.Context, from, to time.Time) ([]retail.DailyMetric, error) {
	return s.repo.ListMetrics(ctx, from, to)
}

// ListSales returns general and duvet sales lines. Zero bounds are open.
func (s *Service) ListSales(ctx context.Context, from, to time.Time) ([]retail.SalesTransaction, []retail.SalesTransaction, error) {
	return s.repo.ListSales(ctx, from, to)
}

// UpsertStore validates and stores a store.
func (s *Service) UpsertStore(ctx context.Context, in StoreInput) error {
	in.ID, in.Name = strings.TrimSpace(in.ID), strings.TrimSpace(in.Name)
	in.AreaManager = strings.TrimSpace(in.AreaManager)
	if err := s.check(in); err != nil {
		return err
	}
	if err := s.repo.UpsertStore(ctx, in); err != nil {
		return fmt.Errorf("directory: upsert store: %w", err)
	}
	s.logger.InfoContext(ctx, "store saved", slog.String("store", in.ID))
	return nil
}

// UpsertEmployee validates and stores an employee. A blank status means
// active.
func (s *Service) UpsertEmployee(ctx context.Context, in EmployeeInput) error {
	in.ID, in.Name = strings.TrimSpace(in.ID), strings.TrimSpace(in.Name)
	in.CurrentStore = strings.TrimSpace(in.CurrentStore)
	if in.Status == "" {
		in.Status = string(retail.StatusActive)
	}
	if err := s.check(in); err != nil {
		return err
	}
	if err := s.repo.UpsertEmployee(ctx, in); err != nil {
		return fmt.Errorf("directory: upsert employee: %w", err)
	}
	s.logger.InfoContext(ctx, "employee saved", slog.String("employee", in.ID))
	return nil
}

// SetStoreTarget sets a store's target for a 1-indexed month.
func (s *Service) SetStoreTarget(ctx context.Context, storeID string, year, month int, amount float64) error {
	return s.setTarget(ctx, TargetInput{Owner: storeID, Kind: KindStore, Year: year, Month: month, Amount: amount})
}

// SetEmployeeTarget sets an employee's sales or duvet target for a
// 1-indexed month.
func (s *Service) SetEmployeeTarget(ctx context.Context, employeeID string, duvet bool, year, month int, amount float64) error {
	kind := KindEmployee
	if duvet {
		kind = KindEmployeeDuvet
	}
	return s.setTarget(ctx, TargetInput{Owner: employeeID, Kind: kind, Year: year, Month: month, Amount: amount})
}

func (s *Service) setTarget(ctx context.Context, in TargetInput) error {
	in.Owner = strings.TrimSpace(in.Owner)
	if err := s.check(in); err != nil {
		return err
	}
	if err := s.repo.SetTarget(ctx, in); err != nil {
		return fmt.Errorf("directory: set target: %w", err)
	}
	return nil
}

// AssignEmployee records the store an employee worked at in a 1-indexed
// month.
func (s *Service) AssignEmployee(ctx context.Context, in AssignmentInput) error {
	in.EmployeeID, in.Store = strings.TrimSpace(in.EmployeeID), strings.TrimSpace(in.Store)
	if err := s.check(in); err != nil {
		return err
	}
	if err := s.repo.SetAssignment(ctx, in); err != nil {
		return fmt.Errorf("directory: assign employee: %w", err)
	}
	return nil
}

// RecordMetric stores a manual metric row and returns its id.
func (s *Service) RecordMetric(ctx context.Context, in MetricInput) (string, error) {
	in.Store = strings.TrimSpace(in.Store)
	if err := s.check(in); err != nil {
		return "", err
	}
	in.Date = time.Date(in.Date.Year(), in.Date.Month(), in.Date.Day(), 0, 0, 0, 0, time.UTC)
	id := s.newID()
	if err := s.repo.RecordMetric(ctx, id, in); err != nil {
		return "", fmt.Errorf("directory: record metric: %w", err)
	}
	return id, nil
}

// ImportSales validates and stores a batch of sales lines. Lines without an
// id receive one.
func (s *Service) ImportSales(ctx context.Context, stream string, lines []SalesLine) (int64, error) {
	if stream != StreamGeneral && stream != StreamDuvet {
		return 0, fmt.Errorf("%w: unknown stream %q", httpx.ErrValidation, stream)
	}
	if len(lines) == 0 {
		return 0, nil
	}
	for i := range lines {
		if err := s.check(lines[i]); err != nil {
			return 0, fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	for i := range lines {
		if strings.TrimSpace(lines[i].ID) == "" {
			lines[i].ID = s.newID()
		}
	}
	n, err := s.repo.ImportSales(ctx, stream, lines)
	if err != nil {
		return 0, fmt.Errorf("directory: import sales: %w", err)
	}
	s.logger.InfoContext(ctx, "sales imported", slog.String("stream", stream), slog.Int64("lines", n))
	return n, nil
}
