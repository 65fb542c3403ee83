// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	return rec
}

func TestContextHandlerAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", false)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	ctx = ContextWithAttrs(ctx, slog.String("actor", "admin"))
	ctx = ContextWithAttrs(ctx, slog.String("route", "/api/posts"))

	logger.InfoContext(ctx, "post created", "id", "p1")

	rec := decodeLine(t, &buf)
	assert.Equal(t, "post created", rec["msg"])
	assert.Equal(t, "req-42", rec["request_id"])
	assert.Equal(t, "admin", rec["actor"])
	assert.Equal(t, "/api/posts", rec["route"])
	assert.Equal(t, "p1", rec["id"])
}

func TestContextHandlerWithoutContextValues(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", false)

	logger.Info("plain")
	rec := decodeLine(t, &buf)
	assert.NotContains(t, rec, "request_id")
	assert.NotContains(t, rec, "actor")
}

func TestContextHandlerWithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", false).With("component", "imaging").WithGroup("upload")

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	logger.InfoContext(ctx, "done", "files", 4)

	rec := decodeLine(t, &buf)
	assert.Equal(t, "imaging", rec["component"])
	group, ok := rec["upload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(4), group["files"])
	assert.Equal(t, "req-1", group["request_id"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", true)

	logger.Info("hidden")
	assert.Zero(t, buf.Len())
	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}
