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

type row struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, ttl), mr
}

func TestFetch_CachesUntilInvalidated(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) ([]row, error) {
		calls++
		return []row{{Tag: "#go", Count: int64(calls)}}, nil
	}

	first, err := Fetch(ctx, c, NamespaceHashtag, "trending:10", load)
	require.NoError(t, err)
	second, err := Fetch(ctx, c, NamespaceHashtag, "trending:10", load)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, Stats{Hits: 1, Misses: 1}, c.Stats())

	c.Invalidate(ctx, NamespaceFollow)
	_, err = Fetch(ctx, c, NamespaceHashtag, "trending:10", load)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "other namespace untouched")

	c.Invalidate(ctx, NamespaceHashtag)
	third, err := Fetch(ctx, c, NamespaceHashtag, "trending:10", load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.EqualValues(t, 2, third[0].Count)
}

func TestFetch_ExpiresWithTTL(t *testing.T) {
	c, mr := newTestCache(t, 30*time.Second)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (int, error) { calls++; return calls, nil }

	_, err := Fetch(ctx, c, NamespaceFollow, "k", load)
	require.NoError(t, err)
	mr.FastForward(31 * time.Second)
	v, err := Fetch(ctx, c, NamespaceFollow, "k", load)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestFetch_LoadErrorIsNotCached(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	boom := errors.New("store down")
	_, err := Fetch(context.Background(), c, NamespaceFollow, "k", func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := Fetch(context.Background(), c, NamespaceFollow, "k", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestFetch_RedisDownFallsThrough(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	mr.Close()

	v, err := Fetch(context.Background(), c, NamespaceFollow, "k", func(context.Context) (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
	c.Invalidate(context.Background(), NamespaceFollow)
}

func TestNilCachePassesThrough(t *testing.T) {
	var c *Cache
	v, err := Fetch(context.Background(), c, NamespaceFollow, "k", func(context.Context) (int, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	c.Invalidate(context.Background(), NamespaceFollow)
	assert.Equal(t, Stats{}, c.Stats())
	assert.Nil(t, New(nil, time.Second))
}
