// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"log/slog"
	"net/url"
	"time"
)

// Config selects and configures a cache backend.
type Config struct {
	// RedisURL enables the Redis backend when non-empty.
	RedisURL   string
	Prefix     string
	DefaultTTL time.Duration
}

const (
	defaultPrefix = "ofolio:"
	defaultTTL    = 5 * time.Minute
)

// New returns a Redis cache when cfg.RedisURL is set and reachable, and a
// memory cache otherwise. A Redis connection failure is logged and the
// memory cache is used instead.
func New(ctx context.Context, cfg Config, logger *slog.Logger) Cache {
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = defaultTTL
	}
	if cfg.RedisURL != "" {
		rc, err := NewRedisCache(ctx, cfg)
		if err == nil {
			logger.Info("using redis cache", "url", SanitizeRedisURL(cfg.RedisURL), "prefix", cfg.Prefix)
			return rc
		}
		logger.Warn("redis unavailable, falling back to memory cache",
			"url", SanitizeRedisURL(cfg.RedisURL), "error", err)
	}
	return NewMemoryCache(cfg.DefaultTTL, time.Minute)
}

// SanitizeRedisURL masks the password in a Redis URL for logging.
func SanitizeRedisURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid URL]"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "***")
		}
	}
	return u.String()
}
