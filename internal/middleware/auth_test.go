// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/olegiv/ofolio/internal/model"
)

type stubVerifier map[string]model.Actor

func (s stubVerifier) Verify(token string) (model.Actor, error) {
	actor, ok := s[token]
	if !ok {
		return model.Actor{}, errors.New("invalid token")
	}
	return actor, nil
}

var (
	testActor = model.Actor{ID: "a1", Username: "admin"}
	verifier  = stubVerifier{"good": testActor}
)

// actorEcho reports the context actor in the X-Actor header.
func actorEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor, ok := ActorFromContext(r.Context()); ok {
			w.Header().Set("X-Actor", actor.Username)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func withAuth(header string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/posts/admin/all", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	return req
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BearerToken(withAuth(tt.header)), tt.header)
	}
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantCode  int
		wantActor string
	}{
		{"valid token", "Bearer good", http.StatusOK, "admin"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Token good", http.StatusUnauthorized, ""},
		{"invalid token", "Bearer bad", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RequireAuth(verifier)(actorEcho()).ServeHTTP(rr, withAuth(tt.header))

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, tt.wantActor, rr.Header().Get("X-Actor"))
			if tt.wantCode == http.StatusUnauthorized {
				assert.Contains(t, rr.Body.String(), `"code":"unauthorized"`)
			}
		})
	}
}

func TestActorFromContext(t *testing.T) {
	ctx := t.Context()
	_, ok := ActorFromContext(ctx)
	assert.False(t, ok)

	_, ok = ActorFromContext(WithActor(ctx, model.Actor{}))
	assert.False(t, ok)

	actor, ok := ActorFromContext(WithActor(ctx, testActor))
	assert.True(t, ok)
	assert.Equal(t, testActor, actor)
}
