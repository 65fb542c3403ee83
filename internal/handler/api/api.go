// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON HTTP handlers of the portfolio API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/ofolio/internal/auth"
	"github.com/olegiv/ofolio/internal/imaging"
	"github.com/olegiv/ofolio/internal/middleware"
	"github.com/olegiv/ofolio/internal/model"
	"github.com/olegiv/ofolio/internal/service"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// Deps are the collaborators of the API handlers.
type Deps struct {
	Posts    *service.PostService
	Projects *service.ProjectService
	Uploads  *service.UploadService
	Contact  *service.ContactService
	Auth     *auth.Authenticator
	Login    *middleware.LoginProtection
	Logger   *slog.Logger
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	posts    *service.PostService
	projects *service.ProjectService
	uploads  *service.UploadService
	contact  *service.ContactService
	auth     *auth.Authenticator
	login    *middleware.LoginProtection
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		posts:    d.Posts,
		projects: d.Projects,
		uploads:  d.Uploads,
		contact:  d.Contact,
		auth:     d.Auth,
		login:    d.Login,
		logger:   d.Logger,
		now:      time.Now,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total int `json:"total"`
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
	Pages int `json:"pages,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	middleware.WriteAPIError(w, http.StatusBadRequest, "bad_request", message, nil)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	middleware.WriteAPIError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	middleware.WriteAPIError(w, http.StatusUnauthorized, "unauthorized", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	middleware.WriteAPIError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	middleware.WriteAPIError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// decodeJSON reads a JSON body of at most maxJSONBody bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

// requireJSON decodes the body into v and writes a 400 on failure.
func requireJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeJSON(w, r, v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			middleware.WriteAPIError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large", nil)
			return false
		}
		WriteBadRequest(w, fmt.Sprintf("Invalid JSON body: %v", err))
		return false
	}
	return true
}

// writeServiceError maps service errors to HTTP responses. entity names the
// resource in not-found messages.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, entity string) {
	var (
		validation *service.ValidationError
		maxErr     *http.MaxBytesError
	)
	switch {
	case errors.As(err, &validation):
		WriteValidationError(w, validation.Fields)
	case errors.Is(err, service.ErrNoActor):
		WriteUnauthorized(w, "Authentication required")
	case errors.Is(err, model.ErrNotFound):
		WriteNotFound(w, entity+" not found")
	case errors.Is(err, model.ErrDuplicateSlug):
		middleware.WriteAPIError(w, http.StatusConflict, "conflict",
			"A "+strings.ToLower(entity)+" with this slug already exists", map[string]string{"slug": "already exists"})
	case errors.Is(err, service.ErrFileTooLarge), errors.As(err, &maxErr):
		middleware.WriteAPIError(w, http.StatusRequestEntityTooLarge, "payload_too_large",
			fmt.Sprintf("File too large, the limit is %d bytes", h.uploadLimit()), nil)
	case errors.Is(err, service.ErrNotImage):
		WriteBadRequest(w, "Only image files are allowed")
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		WriteBadRequest(w, "Unsupported image format")
	case errors.Is(err, imaging.ErrUnknownNamespace):
		WriteBadRequest(w, "Unknown upload namespace")
	case errors.Is(err, service.ErrMailDelivery):
		middleware.WriteAPIError(w, http.StatusInternalServerError, "mail_failed", "Failed to send message", nil)
	case errors.Is(err, imaging.ErrProcessing):
		h.logger.ErrorContext(r.Context(), "image processing failed", "error", err)
		middleware.WriteAPIError(w, http.StatusInternalServerError, "processing_failed", "Failed to process image", nil)
	default:
		h.logger.ErrorContext(r.Context(), "request failed", "error", err, "path", r.URL.Path)
		WriteInternalError(w, "Internal server error")
	}
}

func (h *Handler) uploadLimit() int64 {
	if h.uploads == nil {
		return service.DefaultMaxUploadSize
	}
	return h.uploads.MaxSize()
}

// HealthResponse is the body of the health check.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Health reports that the service is up.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, HealthResponse{Status: "OK", Timestamp: h.now().UTC()}, nil)
}
