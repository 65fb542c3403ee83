// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/ofolio/internal/auth"
	"github.com/olegiv/ofolio/internal/middleware"
	"github.com/olegiv/ofolio/internal/model"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	Success   bool        `json:"success"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      model.Actor `json:"user"`
}

// VerifyResponse is returned for a valid token.
type VerifyResponse struct {
	Valid bool        `json:"valid"`
	User  model.Actor `json:"user"`
}

// Login exchanges the admin credentials for a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !requireJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	fields := map[string]string{}
	if req.Username == "" {
		fields["username"] = "is required"
	}
	if req.Password == "" {
		fields["password"] = "is required"
	}
	if len(fields) > 0 {
		WriteValidationError(w, fields)
		return
	}

	if h.login != nil {
		if locked, remaining := h.login.IsAccountLocked(req.Username); locked {
			middleware.WriteLocked(w, remaining)
			return
		}
	}

	session, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.ErrorContext(r.Context(), "login failed", "error", err)
			WriteInternalError(w, "Login failed")
			return
		}
		h.logger.WarnContext(r.Context(), "invalid login attempt",
			"username", req.Username, "ip", middleware.ClientIP(r))
		if h.login != nil {
			if locked, d := h.login.RecordFailedAttempt(req.Username); locked {
				middleware.WriteLocked(w, d)
				return
			}
		}
		WriteUnauthorized(w, "Invalid credentials")
		return
	}

	if h.login != nil {
		h.login.RecordSuccessfulLogin(req.Username)
	}
	h.logger.InfoContext(r.Context(), "admin logged in", "username", session.Actor.Username)
	WriteSuccess(w, LoginResponse{
		Success:   true,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      session.Actor,
	}, nil)
}

// Verify reports the actor of a valid token. It runs behind RequireAuth.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		WriteUnauthorized(w, "Invalid or expired token")
		return
	}
	WriteSuccess(w, VerifyResponse{Valid: true, User: actor}, nil)
}
