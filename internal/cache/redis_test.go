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

type entry struct {
	Count int    `json:"count"`
	Word  string `json:"word"`
}

func setupTestCache(t *testing.T) (*miniredis.Miniredis, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewCache(client, "wc:")
}

func TestCacheSetAndGet(t *testing.T) {
	mr, c := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", entry{Count: 3, Word: "sono"}, time.Minute))
	assert.True(t, mr.Exists("wc:k"), "prefix applied")

	var got entry
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, entry{Count: 3, Word: "sono"}, got)
}

func TestCacheMiss(t *testing.T) {
	_, c := setupTestCache(t)

	var got entry
	err := c.Get(context.Background(), "absent", &got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestCacheExpiry(t *testing.T) {
	mr, c := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", entry{Count: 1}, time.Second))
	mr.FastForward(2 * time.Second)

	var got entry
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrMiss)
}

func TestCacheSetNX(t *testing.T) {
	_, c := setupTestCache(t)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "job", entry{Count: 1}, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "job", entry{Count: 2}, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	var got entry
	require.NoError(t, c.Get(ctx, "job", &got))
	assert.Equal(t, 1, got.Count)
}

func TestCachePing(t *testing.T) {
	mr, c := setupTestCache(t)
	require.NoError(t, c.Ping(context.Background()))

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}

func TestKey(t *testing.T) {
	a := Key("occurrence", "ab", "c")
	b := Key("occurrence", "a", "bc")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Key("occurrence", "ab", "c"))
	assert.Contains(t, a, "occurrence:")
}
