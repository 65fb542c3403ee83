// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// TypedCache stores values of T as JSON in an underlying Cache. Concurrent
// misses on the same key share a single load.
type TypedCache[T any] struct {
	cache      Cache
	defaultTTL time.Duration
	group      singleflight.Group
}

// NewTypedCache wraps cache for values of T. A zero defaultTTL uses the
// backend default.
func NewTypedCache[T any](cache Cache, defaultTTL time.Duration) *TypedCache[T] {
	return &TypedCache[T]{cache: cache, defaultTTL: defaultTTL}
}

// Get returns the value and true if found and decodable. A corrupt entry
// counts as a miss.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	value, err := decode[T](data)
	if err != nil {
		return nil, false
	}
	return value, true
}

// Set stores a value with the default TTL.
func (c *TypedCache[T]) Set(ctx context.Context, key string, value *T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding cache value: %w", err)
	}
	return c.cache.Set(ctx, key, data, c.defaultTTL)
}

// Delete removes a key from the cache.
func (c *TypedCache[T]) Delete(ctx context.Context, key string) error {
	return c.cache.Delete(ctx, key)
}

// GetOrSet returns the cached value for key, or calls load and caches its
// result. Every caller gets its own decoded copy, so results may be
// modified freely. Cache write failures are ignored.
func (c *TypedCache[T]) GetOrSet(ctx context.Context, key string, load func() (*T, error)) (*T, error) {
	if value, ok := c.Get(ctx, key); ok {
		return value, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := load()
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encoding cache value: %w", err)
		}
		_ = c.cache.Set(ctx, key, data, c.defaultTTL)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return decode[T](v.([]byte))
}

func decode[T any](data []byte) (*T, error) {
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("decoding cache value: %w", err)
	}
	return &value, nil
}
