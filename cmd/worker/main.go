package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bsm/redislock"
	"github.com/hibiken/asynq"

	"github.com/retail-cockpit/cockpit/internal/app"
	jobmetrics "github.com/retail-cockpit/cockpit/internal/jobs"
	"github.com/retail-cockpit/cockpit/internal/platform/cache"
	"github.com/retail-cockpit/cockpit/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig(".env")
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	dataSources := app.NewDataSources(ctx, cfg, redisClient, nil, logger)
	refreshJob := jobs.NewLiveRefreshJob(
		dataSources.Cache,
		dataSources.Provider,
		redislock.New(redisClient),
		logger,
		jobmetrics.NewMetrics(nil),
	)

	refreshTask, err := jobs.NewLiveRefreshTask("schedule")
	if err != nil {
		logger.Error("build refresh task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: cfg.Redis().Queue(),
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLiveRefresh, Handler: func(ctx context.Context, t *asynq.Task) error {
				// Re-warm from fresh source data, not this process's memo.
				dataSources.Invalidate()
				return refreshJob.Handle(ctx, t)
			}},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.LiveRefreshCron, Task: refreshTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
