// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned when a path resolves outside its base directory.
var ErrPathTraversal = errors.New("path escapes base directory")

// SanitizeFilename extracts only the base filename, removing any directory
// components, so "../../../etc/passwd" becomes "passwd".
func SanitizeFilename(filename string) (string, error) {
	safe := filepath.Base(filepath.FromSlash(filename))
	if safe == "." || safe == ".." || safe == "" || safe == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename: %q", filename)
	}
	return safe, nil
}

// ValidatePathWithinBase ensures that targetPath resolves inside basePath.
func ValidatePathWithinBase(basePath, targetPath string) error {
	absBase, err := filepath.Abs(filepath.Clean(basePath))
	if err != nil {
		return fmt.Errorf("invalid base path: %w", err)
	}

	absTarget, err := filepath.Abs(filepath.Clean(targetPath))
	if err != nil {
		return fmt.Errorf("invalid target path: %w", err)
	}

	// trailing separator so /uploads-evil does not match /uploads
	if absTarget != absBase && !strings.HasPrefix(absTarget, absBase+string(filepath.Separator)) {
		return ErrPathTraversal
	}
	return nil
}

// SafeJoinPath joins components onto basePath and rejects results that
// escape it.
func SafeJoinPath(basePath string, components ...string) (string, error) {
	fullPath := filepath.Join(append([]string{basePath}, components...)...)
	if err := ValidatePathWithinBase(basePath, fullPath); err != nil {
		return "", err
	}
	return fullPath, nil
}

// LocalFileForURL maps a public URL path such as
// "/uploads/projects/optimized/a.webp" to a file under root, provided the
// URL starts with publicPrefix. Query strings, fragments and absolute URLs
// with a scheme are not local and report false.
func LocalFileForURL(root, publicPrefix, rawURL string) (string, bool) {
	if rawURL == "" {
		return "", false
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}

	prefix := strings.TrimSuffix(publicPrefix, "/") + "/"
	clean := path.Clean("/" + u.Path)
	if !strings.HasPrefix(clean, prefix) {
		return "", false
	}

	rel := strings.TrimPrefix(clean, prefix)
	if rel == "" {
		return "", false
	}
	full, err := SafeJoinPath(root, filepath.FromSlash(rel))
	if err != nil {
		return "", false
	}
	return full, true
}
