package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/retail-cockpit/cockpit/internal/observability"
	"github.com/retail-cockpit/cockpit/internal/platform/cache"
	"github.com/retail-cockpit/cockpit/internal/sources"
)

// DataSources is the provider stack shared by the API and the worker.
type DataSources struct {
	// Provider is the cached hybrid provider.
	Provider sources.Provider
	Cache    *sources.Cached
	Feed     *sources.Feed

	versioned *cache.Versioned
	memoized  []interface{ Invalidate() }
	logger    *slog.Logger
}

// NewDataSources builds legacy and live sources from cfg, routes between them
// and caches successful responses in Redis. A nil redis client disables the
// cache. Unconfigured sources answer with a failed response.
func NewDataSources(ctx context.Context, cfg *Config, client *redis.Client, metrics *observability.Metrics, logger *slog.Logger) *DataSources {
	if logger == nil {
		logger = slog.Default()
	}
	plain := &http.Client{Timeout: time.Minute}
	reference := sources.NewReference(plain, cfg.ReferenceURL)
	mapping := sources.NewMapping(plain, cfg.StoreMappingURL)
	ds := &DataSources{logger: logger, memoized: []interface{ Invalidate() }{reference, mapping}}

	var legacy, live sources.Provider
	if cfg.LegacySnapshotURL != "" {
		l := sources.NewLegacy(plain, cfg.LegacySnapshotURL, reference, mapping, logger)
		ds.memoized = append(ds.memoized, l)
		legacy = l
	}
	if cfg.LiveAPIURL != "" {
		liveCfg := sources.LiveConfig{
			BaseURL:      cfg.LiveAPIURL,
			TokenURL:     cfg.LiveTokenURL,
			ClientID:     cfg.LiveClientID,
			ClientSecret: cfg.LiveClientSecret,
			Scope:        cfg.LiveScope,
			MaxPages:     cfg.LiveMaxPages,
		}
		live = sources.NewLive(liveCfg.HTTPClient(ctx), liveCfg, mapping, reference, logger)
	}

	hybrid := sources.NewHybrid(legacy, live, cfg.LegacyCutoffYear, logger)
	if metrics != nil {
		hybrid.WithObserver(metrics.ObserveSource)
	}
	if client != nil {
		ds.versioned = cache.NewVersioned(client, "metrics", cfg.CacheTTL)
	}
	ds.Cache = sources.NewCached(hybrid, ds.versioned, logger)
	ds.Provider = ds.Cache
	ds.Feed = sources.NewFeed(ds.Provider, logger)
	return ds
}

// Watch drops memoized snapshot, reference and mapping data whenever another
// process bumps the cache version. It returns once subscribed.
func (d *DataSources) Watch(ctx context.Context) error {
	return d.versioned.ListenForInvalidation(ctx, func(version int64) {
		d.Invalidate()
		d.logger.Info("source data invalidated", slog.Int64("version", version))
	})
}

// Invalidate drops memoized source data in this process.
func (d *DataSources) Invalidate() {
	for _, m := range d.memoized {
		m.Invalidate()
	}
}
