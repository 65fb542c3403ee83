// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/olegiv/ofolio/internal/cache"
	"github.com/olegiv/ofolio/internal/model"
	"github.com/olegiv/ofolio/internal/util"
)

const (
	postCachePrefix    = "posts:"
	postCacheAll = postCachePrefix + "all"
)

// PostService manages the blog post lifecycle.
type PostService struct {
	clock
	posts     PostRepository
	images    *ImageCleaner
	cache     cache.Cache
	listed    *cache.TypedCache[[]model.Post]
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewPostService creates a PostService. c may be nil to disable caching.
func NewPostService(posts PostRepository, images *ImageCleaner, c cache.Cache, logger *slog.Logger) *PostService {
	s := &PostService{
		posts:    posts,
		images:   images,
		cache:    c,
		validate: newValidator(),
		logger:   logger,
	}
	if c != nil {
		s.listed = cache.NewTypedCache[[]model.Post](c, 0)
	}
	return s
}

// List returns every post, drafts included, newest first. The public
// listing goes through the cache; clients filter by status themselves.
func (s *PostService) List(ctx context.Context) ([]model.Post, error) {
	load := func() (*[]model.Post, error) {
		posts, err := s.posts.List(ctx, model.PostFilter{})
		if err != nil {
			return nil, fmt.Errorf("listing posts: %w", err)
		}
		return &posts, nil
	}
	if s.listed == nil {
		posts, err := load()
		if err != nil {
			return nil, err
		}
		return *posts, nil
	}
	posts, err := s.listed.GetOrSet(ctx, postCacheAll, load)
	if err != nil {
		return nil, err
	}
	return *posts, nil
}

// ListAll returns every post regardless of status, newest first, bypassing
// the cache.
func (s *PostService) ListAll(ctx context.Context) ([]model.Post, error) {
	posts, err := s.posts.List(ctx, model.PostFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// GetBySlug returns the post with slug whatever its status.
func (s *PostService) GetBySlug(ctx context.Context, slug string) (*model.Post, error) {
	return s.posts.GetBySlug(ctx, slug)
}

// Create validates in, derives the slug from the title and stores a new
// post authored by actor. A client-supplied slug is ignored.
func (s *PostService) Create(ctx context.Context, in model.PostInput, actor model.Actor) (*model.Post, error) {
	if actor.IsZero() {
		return nil, ErrNoActor
	}

	now := s.timestamp()
	p := &model.Post{
		Author:    actor.Username,
		Status:    model.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyPostInput(p, in)
	p.Slug = util.DeriveSlug(p.Title, util.PostSlug)

	if err := s.check(p); err != nil {
		return nil, err
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.logger.InfoContext(ctx, "post created", "id", p.ID, "slug", p.Slug, "author", actor.Username)
	return p, nil
}

// Update overwrites the supplied fields of post id. The slug is re-derived
// when the title changes; otherwise a supplied slug is taken as is.
func (s *PostService) Update(ctx context.Context, id string, in model.PostInput) (*model.Post, error) {
	p, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	oldTitle := p.Title
	applyPostInput(p, in)
	switch {
	case p.Title != oldTitle:
		p.Slug = util.DeriveSlug(p.Title, util.PostSlug)
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
	if err := s.posts.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.logger.InfoContext(ctx, "post updated", "id", p.ID, "slug", p.Slug)
	return p, nil
}

// Delete removes post id and then its derived featured images. Image
// cleanup never fails the delete.
func (s *PostService) Delete(ctx context.Context, id string) error {
	p, err := s.posts.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)

	s.removeImages(ctx, p)
	s.logger.InfoContext(ctx, "post deleted", "id", id, "slug", p.Slug)
	return nil
}

// ClearAll removes the images of every post and then every post. Images
// already removed are not restored if the bulk delete fails.
func (s *PostService) ClearAll(ctx context.Context) (int64, error) {
	posts, err := s.posts.List(ctx, model.PostFilter{})
	if err != nil {
		return 0, fmt.Errorf("listing posts: %w", err)
	}
	for i := range posts {
		s.removeImages(ctx, &posts[i])
	}

	n, err := s.posts.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("deleting posts: %w", err)
	}
	s.invalidate(ctx)

	s.logger.InfoContext(ctx, "all posts cleared", "count", n)
	return n, nil
}

func (s *PostService) removeImages(ctx context.Context, p *model.Post) {
	if s.images == nil || p.FeaturedImage == "" {
		return
	}
	s.images.RemoveDerived(ctx, model.NamespaceBlog, p.FeaturedImage)
}

func (s *PostService) check(p *model.Post) error {
	if p.Title != "" && p.Slug == "" {
		return newValidationError("title", "must contain letters or digits")
	}
	return validateStruct(s.validate, p)
}

func (s *PostService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPrefix(ctx, postCachePrefix); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate post cache", "error", err)
	}
}

func applyPostInput(p *model.Post, in model.PostInput) {
	if in.Title != nil {
		p.Title = trimmed(in.Title)
	}
	if in.FeaturedImage != nil {
		p.FeaturedImage = trimmed(in.FeaturedImage)
	}
	if in.Excerpt != nil {
		p.Excerpt = trimmed(in.Excerpt)
	}
	if in.Content != nil {
		p.Content = *in.Content
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
}
