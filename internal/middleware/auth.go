// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/ofolio/internal/logging"
	"github.com/olegiv/ofolio/internal/model"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyActor is the context key for the authenticated actor.
const ContextKeyActor ContextKey = "actor"

// TokenVerifier resolves a bearer token to the actor it was issued for.
type TokenVerifier interface {
	Verify(token string) (model.Actor, error)
}

// WithActor returns a copy of ctx carrying actor. The actor's name is also
// attached to every record logged with ctx.
func WithActor(ctx context.Context, actor model.Actor) context.Context {
	ctx = context.WithValue(ctx, ContextKeyActor, actor)
	return logging.ContextWithAttrs(ctx, slog.String("actor", actor.Username))
}

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(ctx context.Context) (model.Actor, bool) {
	actor, ok := ctx.Value(ContextKeyActor).(model.Actor)
	return actor, ok && !actor.IsZero()
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// actor in the request context.
func RequireAuth(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Access token required", nil)
				return
			}
			actor, err := v.Verify(token)
			if err != nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}
