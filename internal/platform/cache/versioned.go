package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Versioned is a JSON cache whose keys embed a namespace version. Bumping the
// version orphans every key written under the previous one.
type Versioned struct {
	client     *redis.Client
	ttl        time.Duration
	versionKey string
	channel    string
}

// NewVersioned creates a cache for a namespace such as "metrics".
func NewVersioned(client *redis.Client, namespace string, ttl time.Duration) *Versioned {
	return &Versioned{
		client:     client,
		ttl:        ttl,
		versionKey: namespace + ":version",
		channel:    namespace + ".bump",
	}
}

// Channel is the pub/sub channel version bumps are announced on.
func (c *Versioned) Channel() string {
	return c.channel
}

// Version returns the current version, initialising it when missing.
func (c *Versioned) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, c.versionKey).Int64()
	if errors.Is(err, redis.Nil) || (err == nil && ver <= 0) {
		if err := c.client.SetNX(ctx, c.versionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, c.versionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey joins parts and appends the current version.
func (c *Versioned) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(parts, ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", joined, ver), nil
}

// Fill produces a value on a cache miss. Values reported as not cacheable
// are returned to the caller without being stored.
type Fill[T any] func(ctx context.Context) (value T, cacheable bool, err error)

// FetchJSON returns the cached value at key or computes and stores it.
func FetchJSON[T any](ctx context.Context, c *Versioned, key string, fill Fill[T]) (T, error) {
	var zero T
	if fill == nil {
		return zero, errors.New("cache: fill required")
	}
	if c == nil || c.client == nil {
		value, _, err := fill(ctx)
		return value, err
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached T
		if err := json.Unmarshal(payload, &cached); err != nil {
			return zero, fmt.Errorf("cache: decode %s: %w", key, err)
		}
		return cached, nil
	}
	if !errors.Is(err, redis.Nil) {
		return zero, err
	}
	value, cacheable, err := fill(ctx)
	if err != nil || !cacheable {
		return value, err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return value, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return value, err
	}
	return value, nil
}

// Bump increments the version and announces it to other processes.
func (c *Versioned) Bump(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Incr(ctx, c.versionKey).Result()
	if err != nil {
		return 0, err
	}
	return ver, c.client.Publish(ctx, c.channel, strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation runs onBump for every announced version until ctx is
// done. It returns once the subscription is confirmed.
func (c *Versioned) ListenForInvalidation(ctx context.Context, onBump func(version int64)) error {
	if c == nil || c.client == nil {
		return nil
	}
	pubsub := c.client.Subscribe(ctx, c.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ver, err := strconv.ParseInt(msg.Payload, 10, 64)
				if err != nil {
					continue
				}
				if onBump != nil {
					onBump(ver)
				}
			}
		}
	}()
	return nil
}
