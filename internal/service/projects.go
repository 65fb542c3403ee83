// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/olegiv/ofolio/internal/cache"
	"github.com/olegiv/ofolio/internal/model"
	"github.com/olegiv/ofolio/internal/util"
)

// Pagination defaults for the public project listing.
const (
	DefaultProjectPage  = 1
	DefaultProjectLimit = 50
	MaxProjectLimit     = 100
)

const projectCachePrefix = "projects:"

// ProjectPage is one page of the public project listing.
type ProjectPage struct {
	Projects []model.Project `json:"projects"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
	Pages    int             `json:"pages"`
}

// ProjectService manages the portfolio project lifecycle.
type ProjectService struct {
	clock
	projects ProjectRepository
	images   *ImageCleaner
	cache    cache.Cache
	pages    *cache.TypedCache[ProjectPage]
	lists    *cache.TypedCache[[]model.Project]
	validate *validator.Validate
	logger   *slog.Logger
}

// NewProjectService creates a ProjectService. c may be nil to disable caching.
func NewProjectService(projects ProjectRepository, images *ImageCleaner, c cache.Cache, logger *slog.Logger) *ProjectService {
	s := &ProjectService{
		projects: projects,
		images:   images,
		cache:    c,
		validate: newValidator(),
		logger:   logger,
	}
	if c != nil {
		s.pages = cache.NewTypedCache[ProjectPage](c, 0)
		s.lists = cache.NewTypedCache[[]model.Project](c, 0)
	}
	return s
}

// NormalizePage applies the listing defaults and bounds.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultProjectPage
	}
	if limit < 1 {
		limit = DefaultProjectLimit
	}
	if limit > MaxProjectLimit {
		limit = MaxProjectLimit
	}
	return page, limit
}

// ListPublished returns a page of published projects, featured first and
// then newest first.
func (s *ProjectService) ListPublished(ctx context.Context, page, limit int) (*ProjectPage, error) {
	page, limit = NormalizePage(page, limit)
	load := func() (*ProjectPage, error) {
		projects, total, err := s.projects.List(ctx, model.ProjectFilter{
			Status:        model.StatusPublished,
			FeaturedFirst: true,
			Limit:         limit,
			Offset:        (page - 1) * limit,
		})
		if err != nil {
			return nil, fmt.Errorf("listing published projects: %w", err)
		}
		return &ProjectPage{
			Projects: projects,
			Total:    total,
			Page:     page,
			Limit:    limit,
			Pages:    (total + limit - 1) / limit,
		}, nil
	}
	if s.pages == nil {
		return load()
	}
	key := projectCachePrefix + "page:" + strconv.Itoa(page) + ":" + strconv.Itoa(limit)
	return s.pages.GetOrSet(ctx, key, load)
}

// ListByCategory returns published projects in category, newest first.
func (s *ProjectService) ListByCategory(ctx context.Context, category string) ([]model.Project, error) {
	category = strings.TrimSpace(category)
	load := func() (*[]model.Project, error) {
		projects, _, err := s.projects.List(ctx, model.ProjectFilter{
			Status:   model.StatusPublished,
			Category: category,
		})
		if err != nil {
			return nil, fmt.Errorf("listing projects in %q: %w", category, err)
		}
		return &projects, nil
	}
	var (
		projects *[]model.Project
		err      error
	)
	if s.lists == nil {
		projects, err = load()
	} else {
		projects, err = s.lists.GetOrSet(ctx, projectCachePrefix+"category:"+category, load)
	}
	if err != nil {
		return nil, err
	}
	return *projects, nil
}

// ListAll returns every project regardless of status, newest first.
func (s *ProjectService) ListAll(ctx context.Context) ([]model.Project, error) {
	projects, _, err := s.projects.List(ctx, model.ProjectFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// GetBySlug returns the project with slug whatever its status.
func (s *ProjectService) GetBySlug(ctx context.Context, slug string) (*model.Project, error) {
	return s.projects.GetBySlug(ctx, slug)
}

// Create validates in, derives the slug from the title and stores a new
// project. Year defaults to the current year and status to published.
func (s *ProjectService) Create(ctx context.Context, in model.ProjectInput, actor model.Actor) (*model.Project, error) {
	if actor.IsZero() {
		return nil, ErrNoActor
	}

	now := s.timestamp()
	p := &model.Project{
		Year:          now.Year(),
		Status:        model.StatusPublished,
		GalleryImages: []string{},
		Tags:          []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	applyProjectInput(p, in)
	p.Slug = util.DeriveSlug(p.Title, util.ProjectSlug)

	if err := s.check(p); err != nil {
		return nil, err
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.logger.InfoContext(ctx, "project created", "id", p.ID, "slug", p.Slug, "actor", actor.Username)
	return p, nil
}

// Update overwrites the supplied fields of project id. Slug handling
// matches PostService.Update.
func (s *ProjectService) Update(ctx context.Context, id string, in model.ProjectInput) (*model.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	oldTitle := p.Title
	applyProjectInput(p, in)
	switch {
	case p.Title != oldTitle:
		p.Slug = util.DeriveSlug(p.Title, util.ProjectSlug)
	case in.Slug != nil:
		p.Slug = trimmed(in.Slug)
		if p.Slug == "" {
			return nil, newValidationError("slug", "must not be empty")
		}
	}
	p.UpdatedAt = s.timestamp()

	if err := s.check(p); err != nil {
		return nil, err
	}
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.logger.InfoContext(ctx, "project updated", "id", p.ID, "slug", p.Slug)
	return p, nil
}

// Delete removes project id, then its featured image and any locally
// hosted gallery images. A featured image that is not a generated
// derivative is removed as a single local file.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)

	if s.images != nil {
		if p.FeaturedImage != "" && s.images.RemoveDerived(ctx, model.NamespaceProjects, p.FeaturedImage) < 0 {
			s.images.RemoveLocal(ctx, model.NamespaceProjects, p.FeaturedImage)
		}
		for _, img := range p.GalleryImages {
			s.images.RemoveLocal(ctx, model.NamespaceProjects, img)
		}
	}

	s.logger.InfoContext(ctx, "project deleted", "id", id, "slug", p.Slug)
	return nil
}

func (s *ProjectService) check(p *model.Project) error {
	if p.Title != "" && p.Slug == "" {
		return newValidationError("title", "must contain letters or digits")
	}
	return validateStruct(s.validate, p)
}

func (s *ProjectService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPrefix(ctx, projectCachePrefix); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate project cache", "error", err)
	}
}

func applyProjectInput(p *model.Project, in model.ProjectInput) {
	if in.Title != nil {
		p.Title = trimmed(in.Title)
	}
	if in.Category != nil {
		p.Category = trimmed(in.Category)
	}
	if in.Description != nil {
		p.Description = trimmed(in.Description)
	}
	if in.LongDescription != nil {
		p.LongDescription = *in.LongDescription
	}
	if in.FeaturedImage != nil {
		p.FeaturedImage = trimmed(in.FeaturedImage)
	}
	if in.GalleryImages != nil {
		p.GalleryImages = compact(*in.GalleryImages)
	}
	if in.Tags != nil {
		p.Tags = compact(*in.Tags)
	}
	if in.Client != nil {
		p.Client = trimmed(in.Client)
	}
	if in.Year != nil {
		p.Year = *in.Year
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
}

// compact trims entries and drops empty ones, always returning a non-nil slice.
func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
