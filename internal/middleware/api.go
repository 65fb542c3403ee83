// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides the HTTP middleware of the API: bearer
// authentication, rate limiting, CORS, security headers, timeouts,
// metrics and request logging.
package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxLimiterEntries bounds the number of tracked clients per limiter.
const maxLimiterEntries = 10000

// APIError represents a JSON error response for the API.
type APIError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	apiErr := APIError{}
	apiErr.Error.Code = code
	apiErr.Error.Message = message
	apiErr.Error.Details = details

	_ = json.NewEncoder(w).Encode(apiErr)
}

// ClientIP returns the client address of r without the port. It expects
// chi's RealIP middleware to have rewritten RemoteAddr already.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// limiterCache is a generic rate limiter cache with double-check locking.
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

// newLimiterCache creates a limiter cache allowing limit events per window
// with the given burst.
func newLimiterCache[K comparable](limit int, window time.Duration, burst int) *limiterCache[K] {
	if burst <= 0 {
		burst = limit
	}
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     rate.Every(window / time.Duration(limit)),
		burst:    burst,
	}
}

// get returns the rate limiter for a specific key, creating one if needed.
func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()

	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}

	if len(lc.limiters) >= maxLimiterEntries {
		lc.limiters = make(map[K]*rate.Limiter)
	}
	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// allow consumes one token for key. When the bucket is empty it returns
// false and the time until the next token.
func (lc *limiterCache[K]) allow(key K) (bool, time.Duration) {
	res := lc.get(key).Reserve()
	if !res.OK() {
		return false, time.Second
	}
	if d := res.Delay(); d > 0 {
		res.Cancel()
		return false, d
	}
	return true, 0
}

// size returns the number of tracked keys.
func (lc *limiterCache[K]) size() int {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return len(lc.limiters)
}

// RateLimiter limits requests per client IP.
type RateLimiter struct {
	name   string
	limit  int
	cache  *limiterCache[string]
	logger *slog.Logger
}

// NewRateLimiter allows limit requests per window per client IP with the
// given burst. burst <= 0 lets a client spend the whole window at once.
func NewRateLimiter(name string, limit int, window time.Duration, burst int, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		name:   name,
		limit:  limit,
		cache:  newLimiterCache[string](limit, window, burst),
		logger: logger,
	}
}

// Middleware returns the rate limiting middleware. Rejected requests get a
// 429 JSON error with a Retry-After header.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))

			ok, retry := rl.cache.allow(ip)
			if !ok {
				rl.logger.WarnContext(r.Context(), "rate limit exceeded",
					"limiter", rl.name, "ip", ip, "path", r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
				WriteAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded",
					"Too many requests, please try again later.", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
