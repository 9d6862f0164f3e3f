package analytics

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/retail-cockpit/cockpit/internal/access"
	"github.com/retail-cockpit/cockpit/internal/retail"
)

// Directory exposes the reference data and manually entered facts. Zero
// bounds are open.
type Directory interface {
	ListStores(ctx context.Context) ([]retail.Store, error)
	ListEmployees(ctx context.Context) ([]retail.Employee, error)
	ListMetrics(ctx context.Context, from, to time.Time) ([]retail.DailyMetric, error)
	ListSales(ctx context.Context, from, to time.Time) (general, duvet []retail.SalesTransaction, err error)
}

// MetricsSource supplies provider metrics for a filter window. It degrades to
// an empty slice instead of failing.
type MetricsSource interface {
	DailyMetrics(ctx context.Context, f retail.DateFilter) []retail.DailyMetric
}

// ErrDirectoryMissing is returned when the service has no directory.
var ErrDirectoryMissing = errors.New("analytics: directory not configured")

// Service loads the universe and runs the pipeline over it.
type Service struct {
	directory Directory
	source    MetricsSource
	pipeline  *Pipeline
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the data collaborators with a Pipeline.
func NewService(directory Directory, source MetricsSource, pipeline *Pipeline, logger *slog.Logger) *Service {
	if pipeline == nil {
		pipeline = NewPipeline(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{directory: directory, source: source, pipeline: pipeline, logger: logger, now: time.Now}
}

// WithNow overrides the clock used for MTD/YTD windows.
func (s *Service) WithNow(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Now returns the service clock in UTC.
func (s *Service) Now() time.Time {
	return s.now().UTC()
}

// Load fetches the universe for the given windows concurrently. Provider
// metrics are requested once per filter.
func (s *Service) Load(ctx context.Context, from, to time.Time, filters ...retail.DateFilter) (retail.Dataset, error) {
	if s.directory == nil {
		return retail.Dataset{}, ErrDirectoryMissing
	}
	var (
		ds     retail.Dataset
		mu     sync.Mutex
		manual []retail.DailyMetric
		feeds  = make([][]retail.DailyMetric, len(filters))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stores, err := s.directory.ListStores(gctx)
		if err != nil {
			return err
		}
		mu.Lock()
		ds.Stores = stores
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		employees, err := s.directory.ListEmployees(gctx)
		if err != nil {
			return err
		}
		mu.Lock()
		ds.Employees = employees
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		rows, err := s.directory.ListMetrics(gctx, from, to)
		if err != nil {
			return err
		}
		manual = rows
		return nil
	})
	g.Go(func() error {
		general, duvet, err := s.directory.ListSales(gctx, from, to)
		if err != nil {
			return err
		}
		mu.Lock()
		ds.Sales, ds.DuvetSales = general, duvet
		mu.Unlock()
		return nil
	})
	if s.source != nil {
		for i, f := range filters {
			g.Go(func() error {
				feeds[i] = s.source.DailyMetrics(gctx, f)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return retail.Dataset{}, err
	}

	ds.Metrics = append(ds.Metrics, manual...)
	for _, rows := range feeds {
		ds.Metrics = append(ds.Metrics, rows...)
	}
	s.logger.DebugContext(ctx, "analytics universe loaded",
		slog.Int("stores", len(ds.Stores)),
		slog.Int("employees", len(ds.Employees)),
		slog.Int("metrics", len(ds.Metrics)),
		slog.Int("sales", len(ds.Sales)+len(ds.DuvetSales)),
	)
	return ds, nil
}

// Dashboard builds every summary for the profile, filter and selection.
func (s *Service) Dashboard(ctx context.Context, profile *retail.Profile, f retail.DateFilter, sel access.Selection) (Result, error) {
	from, to, _ := f.Window()
	ds, err := s.Load(ctx, from, to, f)
	if err != nil {
		return Result{}, err
	}
	return s.pipeline.Process(Input{Profile: profile, Data: ds, Filter: f, Selection: sel}), nil
}

// LFL compares a window against last year over the stores the profile may
// see.
func (s *Service) LFL(ctx context.Context, profile *retail.Profile, req LFLRequest) (LFLComparison, error) {
	now := s.Now()
	current, previous, err := lflWindows(req, now)
	if err != nil {
		return LFLComparison{}, err
	}
	years := make(map[int]struct{})
	for _, w := range []window{current, previous} {
		for _, y := range w.years() {
			years[y] = struct{}{}
		}
	}
	filters := make([]retail.DateFilter, 0, len(years))
	for y := range years {
		filters = append(filters, retail.ForYear(y))
	}
	from, to := previous.from, current.to
	if current.from.Before(from) {
		from = current.from
	}
	if previous.to.After(to) {
		to = previous.to
	}

	ds, err := s.Load(ctx, from, to, filters...)
	if err != nil {
		return LFLComparison{}, err
	}
	scope := s.pipeline.Scope(Input{
		Profile:   profile,
		Data:      ds,
		Filter:    retail.AllTime(),
		Selection: access.Selection{Store: req.Store},
	})
	return CompareLFL(scope.Metrics, req, now)
}
