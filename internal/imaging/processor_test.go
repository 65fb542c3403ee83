// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ofolio/internal/model"
	"github.com/olegiv/ofolio/internal/testutil"
)

// createTestImage creates a simple gradient image with the given dimensions.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

// writeSource writes a PNG upload into the namespace root the way the
// upload service stores raw files, and returns its path.
func writeSource(t *testing.T, root string, ns model.Namespace, name string, w, h int) string {
	t.Helper()
	dir := filepath.Join(root, string(ns))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, createTestImage(w, h)))
	require.NoError(t, f.Close())
	return p
}

func decodeSize(t *testing.T, p string) (int, int) {
	t.Helper()
	f, err := os.Open(p)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestGenerateBlogLargeSource(t *testing.T) {
	root := t.TempDir()
	p := NewProcessor(root, "/uploads", model.FormatWebP, testutil.TestLogger())
	src := writeSource(t, root, model.NamespaceBlog, "blog-1700000000000-42.png", 3000, 1500)

	res, err := p.Generate(src, model.NamespaceBlog)
	require.NoError(t, err)

	assert.Equal(t, "blog-1700000000000-42", res.BaseName)
	assert.Equal(t, model.FormatWebP, res.Format)
	assert.Equal(t, 3000, res.Width)
	assert.Equal(t, 1500, res.Height)
	assert.Positive(t, res.OriginalSize)
	require.Len(t, res.Variants, 4)

	for i, v := range model.NamespaceBlog.Variants() {
		got := res.Variants[i]
		assert.Equal(t, v.Name, got.Variant)

		full := filepath.Join(root, filepath.FromSlash(got.Path))
		info, err := os.Stat(full)
		require.NoError(t, err, "variant %s missing", v.Name)
		assert.Equal(t, info.Size(), got.Size)

		w, h := decodeSize(t, full)
		assert.Equal(t, got.Width, w)
		assert.Equal(t, got.Height, h)
		assert.LessOrEqual(t, w, v.Width)
		assert.LessOrEqual(t, h, v.Height)
		assert.True(t, w == v.Width || h == v.Height, "%s: %dx%d touches no bound", v.Name, w, h)
	}

	require.NotEmpty(t, res.Variants)
	thumb := res.Variants[0]
	require.Equal(t, model.VariantThumb, thumb.Variant)
	assert.Equal(t, "blog-images/thumbnails/blog-1700000000000-42-thumb.webp", thumb.Path)
	assert.Equal(t, "/uploads/blog-images/thumbnails/blog-1700000000000-42-thumb.webp", thumb.URL)

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err), "source upload must be removed")
	_, err = os.Stat(filepath.Join(root, string(model.NamespaceBlog), StagingDir, res.BaseName))
	assert.True(t, os.IsNotExist(err), "staging dir must be removed")
}

func TestGenerateSmallSourceNotUpscaled(t *testing.T) {
	root := t.TempDir()
	p := NewProcessor(root, "/uploads", model.FormatJPEG, testutil.TestLogger())
	src := writeSource(t, root, model.NamespaceBlog, "blog-1-1.png", 200, 100)

	res, err := p.Generate(src, model.NamespaceBlog)
	require.NoError(t, err)
	require.Len(t, res.Variants, 4)

	for _, v := range res.Variants {
		w, h := decodeSize(t, filepath.Join(root, filepath.FromSlash(v.Path)))
		assert.Equal(t, 200, w, v.Variant)
		assert.Equal(t, 100, h, v.Variant)
		assert.Equal(t, ".jpg", filepath.Ext(v.Path))
	}
}

func TestGenerateProjects(t *testing.T) {
	root := t.TempDir()
	p := NewProcessor(root, "/uploads", model.FormatJPEG, testutil.TestLogger())
	src := writeSource(t, root, model.NamespaceProjects, "project-5-6.png", 1600, 1600)

	res, err := p.Generate(src, model.NamespaceProjects)
	require.NoError(t, err)
	require.Len(t, res.Variants, 1)

	v := res.Variants[0]
	assert.Equal(t, model.VariantOptimized, v.Variant)
	assert.Equal(t, "projects/optimized/project-5-6-optimized.jpg", v.Path)
	assert.Equal(t, 900, v.Width)
	assert.Equal(t, 900, v.Height)
}

func TestGenerateCorruptImageRemovesSource(t *testing.T) {
	root := t.TempDir()
	p := NewProcessor(root, "/uploads", model.FormatJPEG, testutil.TestLogger())

	dir := filepath.Join(root, string(model.NamespaceBlog))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	src := filepath.Join(dir, "blog-2-2.png")
	require.NoError(t, os.WriteFile(src, []byte("\x89PNG\r\n\x1a\nnot really a png"), 0o644))

	res, err := p.Generate(src, model.NamespaceBlog)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrProcessing)

	_, statErr := os.Stat(src)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(dir, model.DirOptimized))
	assert.True(t, os.IsNotExist(statErr), "no derivative dirs on failure")
}

func TestGenerateUnsupportedBytes(t *testing.T) {
	root := t.TempDir()
	p := NewProcessor(root, "/uploads", model.FormatJPEG, testutil.TestLogger())
	src := filepath.Join(root, "blog-3-3.txt")
	require.NoError(t, os.WriteFile(src, []byte("plain text"), 0o644))

	_, err := p.Generate(src, model.NamespaceBlog)
	assert.ErrorIs(t, err, ErrProcessing)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	_, statErr := os.Stat(src)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerateUnknownNamespace(t *testing.T) {
	root := t.TempDir()
	p := NewProcessor(root, "/uploads", model.FormatJPEG, testutil.TestLogger())
	src := writeSource(t, root, model.NamespaceBlog, "blog-4-4.png", 10, 10)

	_, err := p.Generate(src, model.Namespace("avatars"))
	assert.ErrorIs(t, err, ErrUnknownNamespace)
	_, statErr := os.Stat(src)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDerivativePaths(t *testing.T) {
	assert.Equal(t, []string{
		"blog-images/thumbnails/blog-123-thumb.webp",
		"blog-images/optimized/blog-123-optimized.webp",
		"blog-images/optimized/blog-123-medium.webp",
		"blog-images/optimized/blog-123-small.webp",
	}, DerivativePaths(model.NamespaceBlog, "blog-123", ".webp"))

	assert.Equal(t, []string{
		"projects/optimized/project-9-optimized.jpg",
	}, DerivativePaths(model.NamespaceProjects, "project-9", ".jpg"))
}

func TestParseOptimizedURL(t *testing.T) {
	p := NewProcessor(t.TempDir(), "/uploads", "", testutil.TestLogger())

	tests := []struct {
		name     string
		ns       model.Namespace
		url      string
		wantBase string
		wantExt  string
		wantOK   bool
	}{
		{"blog optimized", model.NamespaceBlog, "/uploads/blog-images/optimized/blog-123-optimized.webp", "blog-123", ".webp", true},
		{"absolute url", model.NamespaceBlog, "https://api.example.com/uploads/blog-images/optimized/blog-1-optimized.webp", "blog-1", ".webp", true},
		{"jpeg derivative", model.NamespaceProjects, "/uploads/projects/optimized/project-7-optimized.jpg", "project-7", ".jpg", true},
		{"query stripped", model.NamespaceProjects, "/uploads/projects/optimized/project-7-optimized.webp?v=1", "project-7", ".webp", true},
		{"medium still resolves base", model.NamespaceBlog, "/uploads/blog-images/optimized/blog-5-medium.webp", "blog-5-medium", ".webp", true},
		{"thumbnail dir", model.NamespaceBlog, "/uploads/blog-images/thumbnails/blog-1-thumb.webp", "", "", false},
		{"other namespace", model.NamespaceBlog, "/uploads/projects/optimized/project-1-optimized.webp", "", "", false},
		{"external image", model.NamespaceBlog, "https://images.example.com/photo.jpg", "", "", false},
		{"nested path", model.NamespaceBlog, "/uploads/blog-images/optimized/x/y.webp", "", "", false},
		{"empty", model.NamespaceBlog, "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, ext, ok := p.ParseOptimizedURL(tt.ns, tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantBase, base)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestRemoveFilesSkipsMissing(t *testing.T) {
	root := t.TempDir()
	p := NewProcessor(root, "/uploads", "", testutil.TestLogger())

	paths := DerivativePaths(model.NamespaceBlog, "blog-123", ".webp")
	// create only the first two
	for _, rel := range paths[:2] {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))
	}

	assert.Equal(t, 2, p.RemoveFiles(paths))
	for _, rel := range paths {
		_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
		assert.True(t, os.IsNotExist(err))
	}

	assert.Equal(t, 0, p.RemoveFiles([]string{"../outside.txt"}))
}

func TestRemoveLocalURL(t *testing.T) {
	root := t.TempDir()
	p := NewProcessor(root, "/uploads", "", testutil.TestLogger())

	full := filepath.Join(root, "projects", "gallery.jpg")
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))

	assert.True(t, p.RemoveLocalURL("/uploads/projects/gallery.jpg"))
	assert.False(t, p.RemoveLocalURL("/uploads/projects/gallery.jpg"))
	assert.False(t, p.RemoveLocalURL("https://cdn.example.com/gallery.jpg"))
}

func TestApplyOrientation(t *testing.T) {
	img := createTestImage(40, 20)

	tests := []struct {
		orientation int
		wantW       int
		wantH       int
	}{
		{1, 40, 20},
		{2, 40, 20},
		{3, 40, 20},
		{4, 40, 20},
		{5, 20, 40},
		{6, 20, 40},
		{7, 20, 40},
		{8, 20, 40},
	}

	for _, tt := range tests {
		out := applyOrientation(img, tt.orientation)
		assert.Equal(t, tt.wantW, out.Bounds().Dx(), "orientation %d", tt.orientation)
		assert.Equal(t, tt.wantH, out.Bounds().Dy(), "orientation %d", tt.orientation)
	}
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, "png", DetectFormat([]byte("\x89PNG\r\n\x1a\n0000")))
	assert.Equal(t, "jpeg", DetectFormat([]byte("\xff\xd8\xff\xe0")))
	assert.Equal(t, "gif", DetectFormat([]byte("GIF89a")))
	assert.Equal(t, "", DetectFormat([]byte("II*\x00")))
	assert.Equal(t, "", DetectFormat([]byte("hello")))
}
