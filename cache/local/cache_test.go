package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *LocalCache {
	c, err := NewCache(Config{GCInterval: time.Minute})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestGetSet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	err := c.Set(ctx, "key1", "value1", 0)
	require.NoError(t, err)

	v, err := c.Get(ctx, "key1")
	require.NoError(t, err)
	assert.Equal(t, "value1", v)
}

func TestGetMissing(t *testing.T) {
	c := newTestCache(t)
	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTTLExpiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	err := c.Set(ctx, "ttl_key", "val", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, err = c.Get(ctx, "ttl_key")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDel(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	_ = c.Set(ctx, "k", "v", 0)
	_ = c.Del(ctx, "k")
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHash(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.HSet(ctx, "h", "f1", "v1"))
	require.NoError(t, c.HSet(ctx, "h", "f2", "v2"))

	require.NoError(t, c.HSet(ctx, "h", "f1", "v1b"))

	all, err := c.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"f1": "v1b", "f2": "v2"}, all)

	require.NoError(t, c.Del(ctx, "h"))
	all, err = c.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestList(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.LPush(ctx, "l", "c", "b", "a"))
	items, err := c.LRange(ctx, "l", 0, -1)
	require.NoError(t, err)
	// LPush "c" then "b" then "a": head = a, b, c
	assert.Equal(t, []string{"a", "b", "c"}, items)

	require.NoError(t, c.LTrim(ctx, "l", 0, 1))
	items, _ = c.LRange(ctx, "l", 0, -1)
	assert.Equal(t, []string{"a", "b"}, items)
}

func TestDel_RemovesHashesAndLists(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.HSet(ctx, "room:a:monsters", "1", "{}"))
	require.NoError(t, c.LPush(ctx, "room:a:transitions", "x"))
	require.NoError(t, c.Del(ctx, "room:a:monsters", "room:a:transitions"))

	all, err := c.HGetAll(ctx, "room:a:monsters")
	require.NoError(t, err)
	assert.Empty(t, all)
	items, err := c.LRange(ctx, "room:a:transitions", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestList_CappedFeed(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, c.LPush(ctx, "feed", string(rune('a'+i))))
		require.NoError(t, c.LTrim(ctx, "feed", 0, 2))
	}
	items, err := c.LRange(ctx, "feed", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"j", "i", "h"}, items)
}
