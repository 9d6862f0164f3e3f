package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Loader memoizes one expensive fetch. Concurrent callers share the in-flight
// fetch; failures are not remembered so the next call retries.
type Loader[T any] struct {
	fetch func(ctx context.Context) (T, error)
	group singleflight.Group

	mu     sync.RWMutex
	value  T
	loaded bool
	gen    uint64
}

// NewLoader wraps fetch.
func NewLoader[T any](fetch func(ctx context.Context) (T, error)) *Loader[T] {
	return &Loader[T]{fetch: fetch}
}

// Load returns the memoized value, fetching it on first use.
func (l *Loader[T]) Load(ctx context.Context) (T, error) {
	l.mu.RLock()
	if l.loaded {
		v := l.value
		l.mu.RUnlock()
		return v, nil
	}
	gen := l.gen
	l.mu.RUnlock()

	ch := l.group.DoChan("load", func() (any, error) {
		v, err := l.fetch(context.WithoutCancel(ctx))
		if err != nil {
			return v, err
		}
		l.mu.Lock()
		if l.gen == gen {
			l.value, l.loaded = v, true
		}
		l.mu.Unlock()
		return v, nil
	})
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Invalidate drops the memoized value. A fetch already in flight finishes
// but is not remembered.
func (l *Loader[T]) Invalidate() {
	l.mu.Lock()
	var zero T
	l.value, l.loaded = zero, false
	l.gen++
	l.mu.Unlock()
	l.group.Forget("load")
}

// getJSON fetches url and decodes a JSON body into dst.
func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	body, err := get(ctx, client, url)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := decodeJSON(body, dst); err != nil {
		return fmt.Errorf("sources: decode %s: %w", url, err)
	}
	return nil
}

func decodeJSON(r io.Reader, dst any) error {
	return json.NewDecoder(r).Decode(dst)
}

func get(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sources: get %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, url, resp.StatusCode)
	}
	return resp.Body, nil
}
