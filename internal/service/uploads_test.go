// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ofolio/internal/imaging"
	"github.com/olegiv/ofolio/internal/model"
	"github.com/olegiv/ofolio/internal/testutil"
)

func (f *fixture) uploadService(maxSize int64) *UploadService {
	proc := imaging.NewProcessor(f.root, "/uploads", model.FormatJPEG, testutil.TestLogger())
	return NewUploadService(proc, f.uploads, maxSize, testutil.TestLogger())
}

// namespaceFiles lists regular files directly inside the namespace root.
func namespaceFiles(t *testing.T, root string, ns model.Namespace) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(root, string(ns)))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestUploadBlogImage(t *testing.T) {
	f := newFixture(t)
	svc := f.uploadService(0)
	assert.Equal(t, DefaultMaxUploadSize, svc.MaxSize())

	data := testutil.PNGBytes(t, 1600, 800)
	u, err := svc.Upload(t.Context(), model.NamespaceBlog, bytes.NewReader(data), "../Café Photo.PNG")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^blog-\d+-\d+$`), u.BaseName)
	assert.Equal(t, model.FormatJPEG, u.Format)
	assert.Equal(t, "Cafe Photo.PNG", u.OriginalName)
	assert.Equal(t, int64(len(data)), u.OriginalSize)
	assert.Equal(t, 1600, u.Width)
	assert.Equal(t, 800, u.Height)
	require.Len(t, u.Files, 4)
	for _, file := range u.Files {
		assert.FileExists(t, filepath.Join(f.root, filepath.FromSlash(file.Path)))
		assert.True(t, strings.HasPrefix(file.URL, "/uploads/blog-images/"))
	}

	// The raw upload is gone; only derivatives remain.
	assert.Empty(t, namespaceFiles(t, f.root, model.NamespaceBlog))

	stored, err := f.uploads.GetByBaseName(t.Context(), model.NamespaceBlog, u.BaseName)
	require.NoError(t, err)
	assert.Len(t, stored.Files, 4)
}

func TestUploadProjectImage(t *testing.T) {
	f := newFixture(t)
	svc := f.uploadService(0)

	u, err := svc.Upload(t.Context(), model.NamespaceProjects, bytes.NewReader(testutil.JPEGBytes(t, 400, 300)), "shot")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u.BaseName, "project-"))
	require.Len(t, u.Files, 1)
	opt, ok := u.File(model.VariantOptimized)
	require.True(t, ok)
	assert.Equal(t, 400, opt.Width)
	assert.Equal(t, 300, opt.Height)
}

func TestUploadRejectsNonImage(t *testing.T) {
	f := newFixture(t)
	svc := f.uploadService(0)

	_, err := svc.Upload(t.Context(), model.NamespaceBlog, strings.NewReader("plain text, not an image"), "notes.png")
	assert.ErrorIs(t, err, ErrNotImage)
	assert.Empty(t, namespaceFiles(t, f.root, model.NamespaceBlog))
}

func TestUploadRejectsOversize(t *testing.T) {
	f := newFixture(t)
	svc := f.uploadService(1024)

	// A valid PNG header followed by filler pushes the body past the limit.
	data := append(testutil.PNGBytes(t, 10, 10), make([]byte, 4096)...)
	require.Greater(t, len(data), 1024)
	_, err := svc.Upload(t.Context(), model.NamespaceBlog, bytes.NewReader(data), "big.png")
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Empty(t, namespaceFiles(t, f.root, model.NamespaceBlog))
}

func TestUploadAcceptsExactLimit(t *testing.T) {
	f := newFixture(t)
	data := testutil.PNGBytes(t, 10, 10)
	svc := f.uploadService(int64(len(data)))

	u, err := svc.Upload(t.Context(), model.NamespaceProjects, bytes.NewReader(data), "tiny.png")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), u.OriginalSize)
}

func TestUploadDefaultFormat(t *testing.T) {
	f := newFixture(t)
	proc := imaging.NewProcessor(f.root, "/uploads", "", testutil.TestLogger())
	svc := NewUploadService(proc, f.uploads, 0, testutil.TestLogger())

	u, err := svc.Upload(t.Context(), model.NamespaceBlog, bytes.NewReader(testutil.PNGBytes(t, 3000, 1500)), "wide.png")
	require.NoError(t, err)
	assert.Equal(t, model.FormatWebP, u.Format)
	require.Len(t, u.Files, 4)
	for _, file := range u.Files {
		assert.True(t, strings.HasSuffix(file.Path, ".webp"), file.Path)
		assert.FileExists(t, filepath.Join(f.root, filepath.FromSlash(file.Path)))
	}
	thumb, ok := u.File(model.VariantThumb)
	require.True(t, ok)
	assert.Equal(t, 300, thumb.Width)
	assert.Equal(t, 150, thumb.Height)
}

func TestUploadCorruptImage(t *testing.T) {
	f := newFixture(t)
	svc := f.uploadService(0)

	data := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	_, err := svc.Upload(t.Context(), model.NamespaceBlog, bytes.NewReader(data), "broken.png")
	assert.ErrorIs(t, err, imaging.ErrProcessing)
	assert.Empty(t, namespaceFiles(t, f.root, model.NamespaceBlog))
}

func TestUploadUnknownNamespace(t *testing.T) {
	f := newFixture(t)
	svc := f.uploadService(0)

	_, err := svc.Upload(t.Context(), model.Namespace("avatars"), bytes.NewReader(testutil.PNGBytes(t, 10, 10)), "a.png")
	assert.ErrorIs(t, err, imaging.ErrUnknownNamespace)
}

func TestStorageName(t *testing.T) {
	f := newFixture(t)
	svc := f.uploadService(0)

	tests := []struct {
		ns       model.Namespace
		name     string
		mimeType string
		pattern  string
	}{
		{model.NamespaceBlog, "photo.JPG", model.MimeTypeJPEG, `^blog-\d+-\d+\.jpg$`},
		{model.NamespaceProjects, "photo.webp", model.MimeTypeWebP, `^project-\d+-\d+\.webp$`},
		{model.NamespaceBlog, "evil.php", model.MimeTypePNG, `^blog-\d+-\d+\.png$`},
		{model.NamespaceBlog, "noext", model.MimeTypeGIF, `^blog-\d+-\d+\.gif$`},
	}
	for _, tt := range tests {
		assert.Regexp(t, regexp.MustCompile(tt.pattern), svc.storageName(tt.ns, tt.name, tt.mimeType))
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Creme brulee.jpg", displayName("Crème brûlée.jpg"))
	assert.Equal(t, "passwd", displayName("../../etc/passwd"))
	assert.Equal(t, "upload", displayName(""))
}
