// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ofolio/internal/middleware"
	"github.com/olegiv/ofolio/internal/model"
)

// ClearResponse reports the outcome of a bulk delete.
type ClearResponse struct {
	Deleted int64 `json:"deleted"`
}

// ListPosts returns every post, newest first.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "Post")
		return
	}
	WriteSuccess(w, posts, &Meta{Total: len(posts)})
}

// ListAllPosts returns every post including drafts.
func (h *Handler) ListAllPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListAll(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "Post")
		return
	}
	WriteSuccess(w, posts, &Meta{Total: len(posts)})
}

// GetPost returns the post with the slug in the URL.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeServiceError(w, r, err, "Post")
		return
	}
	WriteSuccess(w, post, nil)
}

// CreatePost creates a post authored by the authenticated admin.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in model.PostInput
	if !requireJSON(w, r, &in) {
		return
	}
	actor, _ := middleware.ActorFromContext(r.Context())
	post, err := h.posts.Create(r.Context(), in, actor)
	if err != nil {
		h.writeServiceError(w, r, err, "Post")
		return
	}
	WriteCreated(w, post)
}

// UpdatePost overwrites the supplied fields of the post with the URL id.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var in model.PostInput
	if !requireJSON(w, r, &in) {
		return
	}
	post, err := h.posts.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeServiceError(w, r, err, "Post")
		return
	}
	WriteSuccess(w, post, nil)
}

// DeletePost removes the post with the URL id and its images.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.posts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err, "Post")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearPosts removes every post and its images.
func (h *Handler) ClearPosts(w http.ResponseWriter, r *http.Request) {
	n, err := h.posts.ClearAll(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "Post")
		return
	}
	WriteSuccess(w, ClearResponse{Deleted: n}, nil)
}

// UploadPostImage stores an image for a blog post and returns its derivatives.
func (h *Handler) UploadPostImage(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, model.NamespaceBlog)
}
