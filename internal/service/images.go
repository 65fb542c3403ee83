// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"

	"github.com/olegiv/ofolio/internal/imaging"
	"github.com/olegiv/ofolio/internal/model"
)

// ImageCleaner removes image files whose lifecycle is tied to an entity.
// Every removal is best-effort: failures are logged, never returned.
type ImageCleaner struct {
	processor *imaging.Processor
	uploads   UploadRepository
	logger    *slog.Logger
}

// NewImageCleaner creates a cleaner. uploads may be nil, in which case
// derivatives are always located by naming convention.
func NewImageCleaner(processor *imaging.Processor, uploads UploadRepository, logger *slog.Logger) *ImageCleaner {
	return &ImageCleaner{processor: processor, uploads: uploads, logger: logger}
}

// RemoveDerived removes every derivative generated alongside the optimized
// image at rawURL. The upload manifest is consulted first; without one the
// paths are reconstructed from the base name. It returns the number of
// files removed, or -1 if rawURL is not a generated optimized image of ns.
func (c *ImageCleaner) RemoveDerived(ctx context.Context, ns model.Namespace, rawURL string) int {
	base, ext, ok := c.processor.ParseOptimizedURL(ns, rawURL)
	if !ok {
		return -1
	}

	rels := c.manifestPaths(ctx, ns, base)
	if rels == nil {
		rels = imaging.DerivativePaths(ns, base, ext)
	}
	removed := c.processor.RemoveFiles(rels)
	c.forget(ctx, ns, base)

	c.logger.DebugContext(ctx, "removed derived images", "namespace", ns, "base", base, "files", removed)
	return removed
}

// RemoveLocal removes the single file rawURL points at when it lives in
// ns's upload tree. External URLs are ignored.
func (c *ImageCleaner) RemoveLocal(ctx context.Context, ns model.Namespace, rawURL string) bool {
	nsPrefix := c.processor.PublicPrefix() + "/" + string(ns) + "/"
	if !strings.HasPrefix(path.Clean(rawURL), nsPrefix) {
		return false
	}
	removed := c.processor.RemoveLocalURL(rawURL)
	if base, _, ok := c.processor.ParseOptimizedURL(ns, rawURL); ok {
		c.forget(ctx, ns, base)
	}
	return removed
}

func (c *ImageCleaner) manifestPaths(ctx context.Context, ns model.Namespace, base string) []string {
	if c.uploads == nil {
		return nil
	}
	u, err := c.uploads.GetByBaseName(ctx, ns, base)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			c.logger.WarnContext(ctx, "failed to load upload manifest", "base", base, "error", err)
		}
		return nil
	}
	rels := make([]string, 0, len(u.Files))
	for _, f := range u.Files {
		rels = append(rels, f.Path)
	}
	return rels
}

func (c *ImageCleaner) forget(ctx context.Context, ns model.Namespace, base string) {
	if c.uploads == nil {
		return
	}
	if err := c.uploads.DeleteByBaseName(ctx, ns, base); err != nil {
		c.logger.WarnContext(ctx, "failed to delete upload manifest", "base", base, "error", err)
	}
}
