package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/retail-cockpit/cockpit/internal/jobs"
	"github.com/retail-cockpit/cockpit/internal/sources"
)

const (
	refreshLockKey = "cockpit:lock:live-refresh"
	refreshLockTTL = 10 * time.Minute
	refreshJobName = "live_refresh"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// CacheInvalidator orphans every cached provider response.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) (int64, error)
}

// LiveRefreshJob invalidates the response cache and re-fetches the windows
// the dashboard opens on, so the next request is served warm.
type LiveRefreshJob struct {
	Cache    CacheInvalidator
	Provider sources.Provider
	Locker   *redislock.Client
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewLiveRefreshJob wires dependencies for the refresh handler. provider
// should be the cached provider so re-fetched windows are stored.
func NewLiveRefreshJob(cache CacheInvalidator, provider sources.Provider, locker *redislock.Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *LiveRefreshJob {
	return &LiveRefreshJob{
		Cache:    cache,
		Provider: provider,
		Locker:   locker,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WithClock overrides the clock used to pick the warmed period.
func (j *LiveRefreshJob) WithClock(clock func() time.Time) *LiveRefreshJob {
	if clock != nil {
		j.clock = clock
	}
	return j
}

// Handle processes live refresh tasks. Overlapping runs are skipped while
// another worker holds the lock.
func (j *LiveRefreshJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil {
		return errors.New("live refresh: handler not configured")
	}
	var payload LiveRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger().With(slog.String("run_id", uuid.NewString()), slog.String("reason", payload.Reason))

	if j.Locker != nil {
		lock, err := j.Locker.Obtain(ctx, refreshLockKey, refreshLockTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			logger.Info("live refresh skipped", slog.String("cause", "lock held"))
			return nil
		}
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				logger.Warn("release refresh lock", slog.Any("error", err))
			}
		}()
	}

	tracker := j.metrics().Track(refreshJobName)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := time.Now()
	if j.Cache != nil {
		version, err := j.Cache.Invalidate(ctx)
		if err != nil {
			logger.Error("invalidate metrics cache", slog.Any("error", err))
			return err
		}
		logger.Info("metrics cache invalidated", slog.Int64("version", version))
	}

	warmed, failed := j.warm(ctx)
	logger.Info("completed live refresh",
		slog.Int("warmed", warmed),
		slog.Int("failed", failed),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// warm re-fetches the current calendar month and the current year, the
// windows a live dashboard opens on by default.
func (j *LiveRefreshJob) warm(ctx context.Context) (warmed, failed int) {
	if j.Provider == nil {
		return 0, 0
	}
	now := j.clock()
	requests := []sources.Request{
		sources.MonthRequest(now.Year(), int(now.Month())-1),
		sources.YearRequest(now.Year()),
	}
	for _, req := range requests {
		resp := j.Provider.Metrics(ctx, req)
		j.metrics().AddWarmed(resp.Debug.Source, resp.Success)
		if resp.Success {
			warmed++
			continue
		}
		failed++
		j.logger().Warn("warm window failed", slog.String("request", req.Key()), slog.Any("notes", resp.Debug.Notes))
	}
	return warmed, failed
}

func (j *LiveRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLiveRefresh))
	}
	return slog.Default().With(slog.String("job", TaskLiveRefresh))
}

func (j *LiveRefreshJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
