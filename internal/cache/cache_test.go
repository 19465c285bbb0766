package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stats struct {
	Count int    `json:"count"`
	Total string `json:"total"`
}

func newCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, time.Minute), mr
}

func TestGetSet(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	var got stats
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "k", stats{Count: 2, Total: "330.00"}))
	hit, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, stats{Count: 2, Total: "330.00"}, got)

	mr.FastForward(2 * time.Minute)
	hit, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit, "entry should expire after the TTL")
}

func TestRemember(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()
	calls := 0
	load := func() (stats, error) {
		calls++
		return stats{Count: calls}, nil
	}

	first, err := Remember(ctx, c, TenantKey(1, "stats"), load)
	require.NoError(t, err)
	second, err := Remember(ctx, c, TenantKey(1, "stats"), load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestRemember_LoadErrorNotCached(t *testing.T) {
	c, mr := newCache(t)
	boom := errors.New("boom")

	_, err := Remember(context.Background(), c, "k", func() (stats, error) { return stats{}, boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("k"))
}

func TestInvalidateTenant(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()
	for _, k := range []string{TenantKey(1, "stats"), TenantKey(1, "chart:12"), TenantKey(2, "stats"), AdminKey("stats")} {
		require.NoError(t, c.Set(ctx, k, stats{}))
	}

	c.InvalidateTenant(ctx, 1)

	assert.False(t, mr.Exists(TenantKey(1, "stats")))
	assert.False(t, mr.Exists(TenantKey(1, "chart:12")))
	assert.False(t, mr.Exists(AdminKey("stats")))
	assert.True(t, mr.Exists(TenantKey(2, "stats")))
}

func TestNilCache(t *testing.T) {
	var c *Cache
	ctx := context.Background()
	assert.Nil(t, New(nil, 0))

	require.NoError(t, c.Set(ctx, "k", stats{}))
	hit, err := c.Get(ctx, "k", &stats{})
	require.NoError(t, err)
	assert.False(t, hit)
	c.InvalidateTenant(ctx, 1)

	v, err := Remember(ctx, c, "k", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
