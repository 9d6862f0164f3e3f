package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Total float64 `json:"total"`
}

func newVersioned(t *testing.T) (*Versioned, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewVersioned(client, "metrics", time.Minute), mr
}

func TestFetchJSONCachesUntilBump(t *testing.T) {
	ctx := context.Background()
	c, mr := newVersioned(t)

	calls := 0
	fill := func(context.Context) (payload, bool, error) {
		calls++
		return payload{Total: float64(calls * 100)}, true, nil
	}

	key, err := c.BuildKey(ctx, "metrics", "2025", "5")
	require.NoError(t, err)
	assert.Equal(t, "metrics:2025:5:v1", key)

	first, err := FetchJSON(ctx, c, key, fill)
	require.NoError(t, err)
	second, err := FetchJSON(ctx, c, key, fill)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists(key))

	ver, err := c.Bump(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ver)

	key, err = c.BuildKey(ctx, "metrics", "2025", "5")
	require.NoError(t, err)
	third, err := FetchJSON(ctx, c, key, fill)
	require.NoError(t, err)
	assert.InDelta(t, 200, third.Total, 1e-9)
	assert.Equal(t, 2, calls)
}

func TestFetchJSONSkipsUncacheableValues(t *testing.T) {
	ctx := context.Background()
	c, mr := newVersioned(t)

	value, err := FetchJSON(ctx, c, "k", func(context.Context) (payload, bool, error) {
		return payload{Total: 1}, false, nil
	})
	require.NoError(t, err)
	assert.InDelta(t, 1, value.Total, 1e-9)
	assert.False(t, mr.Exists("k"))

	_, err = FetchJSON(ctx, c, "k", func(context.Context) (payload, bool, error) {
		return payload{}, true, errors.New("down")
	})
	assert.EqualError(t, err, "down")
	assert.False(t, mr.Exists("k"))
}

func TestFetchJSONWithoutClient(t *testing.T) {
	var c *Versioned
	value, err := FetchJSON(context.Background(), c, "k", func(context.Context) (payload, bool, error) {
		return payload{Total: 7}, true, nil
	})
	require.NoError(t, err)
	assert.InDelta(t, 7, value.Total, 1e-9)

	key, err := c.BuildKey(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "a:b", key)
}

func TestListenForInvalidation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c, _ := newVersioned(t)

	got := make(chan int64, 1)
	require.NoError(t, c.ListenForInvalidation(ctx, func(v int64) { got <- v }))
	ver, err := c.Bump(ctx)
	require.NoError(t, err)

	select {
	case v := <-got:
		assert.Equal(t, ver, v)
	case <-time.After(2 * time.Second):
		t.Fatal("bump not delivered")
	}
}
