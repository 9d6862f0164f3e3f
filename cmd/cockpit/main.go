package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/retail-cockpit/cockpit/cmd/cockpit/cli"
	"github.com/retail-cockpit/cockpit/internal/access"
	"github.com/retail-cockpit/cockpit/internal/analytics"
	analytichttp "github.com/retail-cockpit/cockpit/internal/analytics/http"
	"github.com/retail-cockpit/cockpit/internal/app"
	"github.com/retail-cockpit/cockpit/internal/directory"
	"github.com/retail-cockpit/cockpit/internal/observability"
	"github.com/retail-cockpit/cockpit/internal/platform/cache"
	"github.com/retail-cockpit/cockpit/internal/platform/db"
	"github.com/retail-cockpit/cockpit/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig(".env")
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		jobsCLI := cli.NewJobsCLI(cfg.Redis().Queue())
		code := jobsCLI.Run(ctx, os.Args[2:], os.Stdout, os.Stderr)
		_ = jobsCLI.Close()
		os.Exit(code)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.WithMaxConns(cfg.PGMaxConns), db.WithApplicationName("cockpit"))
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	repo := directory.NewRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("ensure directory schema", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Warn("redis unavailable, serving without cache", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	dataSources := app.NewDataSources(ctx, cfg, redisClient, metrics, logger)
	if err := dataSources.Watch(ctx); err != nil {
		logger.Warn("subscribe to cache invalidation", slog.Any("error", err))
	}

	directoryService := directory.NewService(repo, logger)
	analyticsService := analytics.NewService(directoryService, dataSources.Feed, analytics.NewPipeline(nil), logger)

	var jobHandler *jobs.Handler
	if redisClient != nil {
		redisOpts := cfg.Redis().Queue()
		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobClient := jobs.NewClient(redisOpts)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, jobClient, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Access:           access.Middleware{Logger: logger},
		DirectoryHandler: directory.NewHandler(logger, directoryService),
		AnalyticsHandler: analytichttp.NewHandler(logger, analyticsService, dataSources.Provider),
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.Int("legacy_cutoff", cfg.LegacyCutoffYear))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
