// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides URL slug derivation and filesystem path helpers
// shared by the content services and the image pipeline.
package util

import (
	"strings"
	"unicode"
)

// SlugKind selects the normalization rules applied by DeriveSlug.
type SlugKind int

const (
	// PostSlug keeps hyphens as typed; only whitespace runs are collapsed.
	PostSlug SlugKind = iota
	// ProjectSlug additionally collapses repeated hyphens and trims them
	// from both ends.
	ProjectSlug
)

// DeriveSlug converts a title into a URL-safe identifier.
//
// The title is lowercased, every character outside [a-z0-9], whitespace
// and '-' is dropped, and each remaining run of whitespace becomes a single
// hyphen. Dropped characters do not split a whitespace run, so "a ! b"
// yields "a-b". An empty title yields an empty slug.
func DeriveSlug(title string, kind SlugKind) string {
	var b strings.Builder
	b.Grow(len(title))

	pendingSpace := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = true
		case isSlugRune(r):
			if pendingSpace {
				b.WriteByte('-')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	if pendingSpace {
		b.WriteByte('-')
	}

	slug := b.String()
	if kind == ProjectSlug {
		slug = collapseHyphens(slug)
	}
	return slug
}

func isSlugRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-'
}

func collapseHyphens(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevHyphen := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '-' {
			if prevHyphen {
				continue
			}
			prevHyphen = true
		} else {
			prevHyphen = false
		}
		b.WriteByte(c)
	}
	return strings.Trim(b.String(), "-")
}
