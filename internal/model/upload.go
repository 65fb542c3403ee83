// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Namespace is an upload category. It selects the variant policy and the
// directory tree under the uploads root.
type Namespace string

// Upload namespaces.
const (
	NamespaceBlog     Namespace = "blog-images"
	NamespaceProjects Namespace = "projects"
)

// Valid reports whether n is a known namespace.
func (n Namespace) Valid() bool {
	_, ok := namespaceVariants[n]
	return ok
}

// FilePrefix returns the prefix used for generated storage names.
func (n Namespace) FilePrefix() string {
	if n == NamespaceProjects {
		return "project"
	}
	return "blog"
}

// Variants returns the derivative policy for n, in generation order.
func (n Namespace) Variants() []ImageVariantConfig {
	return namespaceVariants[n]
}

// Variant suffixes appended to the base name.
const (
	VariantThumb     = "thumb"
	VariantOptimized = "optimized"
	VariantMedium    = "medium"
	VariantSmall     = "small"
)

// Variant subdirectories inside a namespace.
const (
	DirThumbnails = "thumbnails"
	DirOptimized  = "optimized"
)

// ImageVariantConfig defines one derivative: the box it must fit in and
// the encoder quality.
type ImageVariantConfig struct {
	Name    string
	Dir     string
	Width   int
	Height  int
	Quality int
}

var namespaceVariants = map[Namespace][]ImageVariantConfig{
	NamespaceBlog: {
		{Name: VariantThumb, Dir: DirThumbnails, Width: 300, Height: 200, Quality: 85},
		{Name: VariantOptimized, Dir: DirOptimized, Width: 1200, Height: 900, Quality: 90},
		{Name: VariantMedium, Dir: DirOptimized, Width: 800, Height: 600, Quality: 88},
		{Name: VariantSmall, Dir: DirOptimized, Width: 600, Height: 400, Quality: 85},
	},
	NamespaceProjects: {
		{Name: VariantOptimized, Dir: DirOptimized, Width: 1200, Height: 900, Quality: 90},
	},
}

// ImageFormat is the encoding used for derivatives.
type ImageFormat string

// Supported derivative formats.
const (
	FormatWebP ImageFormat = "webp"
	FormatJPEG ImageFormat = "jpeg"
)

// Ext returns the file extension including the dot.
func (f ImageFormat) Ext() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return ".webp"
}

// Supported upload MIME types.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
)

// Upload is the manifest of one processed image: everything needed to
// remove its derivatives later without relying on naming conventions.
type Upload struct {
	ID           string       `json:"id" bson:"_id"`
	BaseName     string       `json:"baseName" bson:"baseName"`
	Namespace    Namespace    `json:"namespace" bson:"namespace"`
	Format       ImageFormat  `json:"format" bson:"format"`
	OriginalName string       `json:"originalName" bson:"originalName"`
	OriginalSize int64        `json:"originalSize" bson:"originalSize"`
	Width        int          `json:"width" bson:"width"`
	Height       int          `json:"height" bson:"height"`
	Files        []UploadFile `json:"files" bson:"files"`
	CreatedAt    time.Time    `json:"createdAt" bson:"createdAt"`
}

// UploadFile is one derivative on disk.
type UploadFile struct {
	Variant string `json:"variant" bson:"variant"`
	// Path is slash-separated and relative to the uploads root.
	Path   string `json:"path" bson:"path"`
	URL    string `json:"url" bson:"url"`
	Width  int    `json:"width" bson:"width"`
	Height int    `json:"height" bson:"height"`
	Size   int64  `json:"size" bson:"size"`
}

// File returns the derivative with the given variant name.
func (u *Upload) File(variant string) (UploadFile, bool) {
	for _, f := range u.Files {
		if f.Variant == variant {
			return f, true
		}
	}
	return UploadFile{}, false
}
