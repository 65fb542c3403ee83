// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ofolio/internal/middleware"
)

// Limits are the rate limiters applied to the API.
type Limits struct {
	// API applies to every route.
	API *middleware.RateLimiter
	// Contact applies to the contact form on top of API.
	Contact *middleware.RateLimiter
}

// Routes returns the router mounted under /api.
func (h *Handler) Routes(limits Limits) http.Handler {
	requireAuth := middleware.RequireAuth(h.auth)

	r := chi.NewRouter()
	if limits.API != nil {
		r.Use(limits.API.Middleware())
	}

	r.Get("/health", h.Health)

	r.Route("/auth", func(r chi.Router) {
		login := r.With()
		if h.login != nil {
			login = r.With(h.login.Middleware())
		}
		login.Post("/login", h.Login)
		r.With(requireAuth).Get("/verify", h.Verify)
	})

	contact := r.With()
	if limits.Contact != nil {
		contact = r.With(limits.Contact.Middleware())
	}
	contact.Post("/contact", h.Contact)

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.ListPosts)
		r.Get("/{slug}", h.GetPost)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/admin/all", h.ListAllPosts)
			r.Post("/", h.CreatePost)
			r.Delete("/", h.ClearPosts)
			r.Post("/upload-image", h.UploadPostImage)
			r.Put("/{id}", h.UpdatePost)
			r.Delete("/{id}", h.DeletePost)
		})
	})

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.ListProjects)
		r.Get("/category/{category}", h.ListProjectsByCategory)
		r.Get("/{slug}", h.GetProject)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/admin/all", h.ListAllProjects)
			r.Post("/", h.CreateProject)
			r.Post("/upload-image", h.UploadProjectImage)
			r.Put("/{id}", h.UpdateProject)
			r.Delete("/{id}", h.DeleteProject)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})
	return r
}
