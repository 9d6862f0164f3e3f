package sources

import (
	"context"
	"log/slog"

	"github.com/retail-cockpit/cockpit/internal/platform/cache"
)

// Cached serves successful responses from the versioned Redis cache.
type Cached struct {
	next   Provider
	cache  *cache.Versioned
	logger *slog.Logger
}

// NewCached wraps next. A nil cache passes every request through.
func NewCached(next Provider, c *cache.Versioned, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{next: next, cache: c, logger: logger}
}

// Metrics returns the cached response or asks the wrapped provider. Cache
// failures fall back to the provider.
func (c *Cached) Metrics(ctx context.Context, req Request) Response {
	key, err := c.cache.BuildKey(ctx, "metrics", req.Key())
	if err != nil {
		c.logger.WarnContext(ctx, "metrics cache unavailable", slog.Any("error", err))
		return c.next.Metrics(ctx, req)
	}
	var (
		filled Response
		called bool
	)
	resp, err := cache.FetchJSON(ctx, c.cache, key, func(ctx context.Context) (Response, bool, error) {
		filled, called = c.next.Metrics(ctx, req), true
		return filled, filled.Success, nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "metrics cache failed", slog.String("key", key), slog.Any("error", err))
		if called {
			return filled
		}
		return c.next.Metrics(ctx, req)
	}
	return resp
}

// Invalidate orphans every cached response.
func (c *Cached) Invalidate(ctx context.Context) (int64, error) {
	return c.cache.Bump(ctx)
}
