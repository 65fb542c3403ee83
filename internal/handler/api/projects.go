// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ofolio/internal/middleware"
	"github.com/olegiv/ofolio/internal/model"
)

// ListProjects returns a page of published projects, featured first.
// Query: page, limit.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page")
	limit := queryInt(r, "limit")

	result, err := h.projects.ListPublished(r.Context(), page, limit)
	if err != nil {
		h.writeServiceError(w, r, err, "Project")
		return
	}
	WriteSuccess(w, result.Projects, &Meta{
		Total: result.Total,
		Page:  result.Page,
		Limit: result.Limit,
		Pages: result.Pages,
	})
}

// ListAllProjects returns every project including drafts.
func (h *Handler) ListAllProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.ListAll(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "Project")
		return
	}
	WriteSuccess(w, projects, &Meta{Total: len(projects)})
}

// ListProjectsByCategory returns published projects in the URL category.
func (h *Handler) ListProjectsByCategory(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.ListByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		h.writeServiceError(w, r, err, "Project")
		return
	}
	WriteSuccess(w, projects, &Meta{Total: len(projects)})
}

// GetProject returns the project with the slug in the URL.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeServiceError(w, r, err, "Project")
		return
	}
	WriteSuccess(w, project, nil)
}

// CreateProject creates a project.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var in model.ProjectInput
	if !requireJSON(w, r, &in) {
		return
	}
	actor, _ := middleware.ActorFromContext(r.Context())
	project, err := h.projects.Create(r.Context(), in, actor)
	if err != nil {
		h.writeServiceError(w, r, err, "Project")
		return
	}
	WriteCreated(w, project)
}

// UpdateProject overwrites the supplied fields of the project with the URL id.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var in model.ProjectInput
	if !requireJSON(w, r, &in) {
		return
	}
	project, err := h.projects.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeServiceError(w, r, err, "Project")
		return
	}
	WriteSuccess(w, project, nil)
}

// DeleteProject removes the project with the URL id and its images.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err, "Project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadProjectImage stores an image for a project and returns its derivative.
func (h *Handler) UploadProjectImage(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, model.NamespaceProjects)
}

// queryInt parses an optional integer query parameter. Zero means absent;
// a value that does not parse counts as absent too.
func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(name)))
	if err != nil {
		return 0
	}
	return n
}
