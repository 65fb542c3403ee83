// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ofolio/internal/cache"
	"github.com/olegiv/ofolio/internal/imaging"
	"github.com/olegiv/ofolio/internal/model"
	"github.com/olegiv/ofolio/internal/store"
	"github.com/olegiv/ofolio/internal/testutil"
)

var admin = model.Actor{ID: "admin", Username: "admin"}

// fixture wires services over a temp SQLite database and uploads root.
type fixture struct {
	root     string
	posts    *store.PostStore
	projects *store.ProjectStore
	uploads  *store.UploadStore
	cache    cache.Cache
	images   *ImageCleaner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.TestDB(t)
	root := t.TempDir()
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	t.Cleanup(func() { _ = c.Close() })

	f := &fixture{
		root:     root,
		posts:    store.NewPostStore(db),
		projects: store.NewProjectStore(db),
		uploads:  store.NewUploadStore(db),
		cache:    c,
	}
	proc := imaging.NewProcessor(root, "/uploads", model.FormatWebP, testutil.TestLogger())
	f.images = NewImageCleaner(proc, f.uploads, testutil.TestLogger())
	return f
}

func (f *fixture) postService() *PostService {
	return NewPostService(f.posts, f.images, f.cache, testutil.TestLogger())
}

func (f *fixture) projectService() *ProjectService {
	return NewProjectService(f.projects, f.images, f.cache, testutil.TestLogger())
}

// touch creates an empty file at root-relative rel.
func (f *fixture) touch(t *testing.T, rel string) string {
	t.Helper()
	return testutil.WriteFile(t, f.root, rel, []byte("x"))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// steppingClock returns a clock that advances by a minute on every call.
func steppingClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func ptr[T any](v T) *T {
	return &v
}

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, field)
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"title": "is required", "content": "is required"}}
	assert.Equal(t, "validation failed: content: is required; title: is required", err.Error())
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	err := validateStruct(newValidator(), model.Post{Status: "archived", Excerpt: string(make([]byte, 201))})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["title"])
	assert.Equal(t, "is required", verr.Fields["content"])
	assert.Equal(t, "must be one of: draft published", verr.Fields["status"])
	assert.Equal(t, "must be at most 200 characters", verr.Fields["excerpt"])
}

func TestImageCleanerIgnoresForeignURLs(t *testing.T) {
	f := newFixture(t)
	keep := f.touch(t, filepath.Join("projects", "optimized", "project-1-optimized.webp"))

	ctx := t.Context()
	assert.Equal(t, -1, f.images.RemoveDerived(ctx, model.NamespaceBlog, "https://cdn.example.com/a.webp"))
	assert.Equal(t, -1, f.images.RemoveDerived(ctx, model.NamespaceBlog, "/uploads/projects/optimized/project-1-optimized.webp"))
	assert.False(t, f.images.RemoveLocal(ctx, model.NamespaceBlog, "/uploads/projects/optimized/project-1-optimized.webp"))
	assert.False(t, f.images.RemoveLocal(ctx, model.NamespaceProjects, "/uploads/projects/../../etc/passwd"))
	assert.FileExists(t, keep)
}
