// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_BasicOperations(t *testing.T) {
	c := NewMemoryCache(time.Hour, 0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key1", []byte("value1"), 0))

	val, err := c.Get(ctx, "key1")
	require.NoError(t, err)
	assert.Equal(t, "value1", string(val))

	require.NoError(t, c.Delete(ctx, "key1"))
	_, err = c.Get(ctx, "key1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_Expiration(t *testing.T) {
	c := NewMemoryCache(time.Hour, 0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_ValueIsCopied(t *testing.T) {
	c := NewMemoryCache(time.Hour, 0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	v := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", v, 0))
	v[0] = 'z'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestMemoryCache_DeleteByPrefix(t *testing.T) {
	c := NewMemoryCache(time.Hour, 0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	for _, k := range []string{"posts:published", "projects:page:1:50", "projects:category:web"} {
		require.NoError(t, c.Set(ctx, k, []byte("x"), 0))
	}

	require.NoError(t, c.DeleteByPrefix(ctx, "projects:"))

	_, err := c.Get(ctx, "posts:published")
	assert.NoError(t, err)
	_, err = c.Get(ctx, "projects:page:1:50")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "projects:category:web")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Clear(ctx))
	_, err = c.Get(ctx, "posts:published")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_Closed(t *testing.T) {
	c := NewMemoryCache(time.Hour, time.Minute)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	ctx := context.Background()
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheClosed)
	assert.ErrorIs(t, c.Set(ctx, "k", nil, 0), ErrCacheClosed)
	assert.ErrorIs(t, c.DeleteByPrefix(ctx, "k"), ErrCacheClosed)
}

func TestMemoryCache_Stats(t *testing.T) {
	c := NewMemoryCache(time.Hour, 0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), 0)
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "missing")

	s := c.Stats()
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, int64(1), s.Sets)
	assert.InDelta(t, 50.0, s.HitRate, 0.001)
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := NewMemoryCache(time.Hour, 0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			_ = c.Set(ctx, key, []byte("v"), 0)
			_, _ = c.Get(ctx, key)
			_ = c.DeleteByPrefix(ctx, "k")
		}()
	}
	wg.Wait()
}
