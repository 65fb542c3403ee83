// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the content entities (Post, Project), the upload
// manifest and the image variant policy shared by the store, service and
// imaging layers.
package model

import "errors"

// Store-level outcomes that callers distinguish from generic failures.
var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateSlug = errors.New("slug already exists")
)

// Status is the publication state of a Post or Project.
type Status string

// Publication states. Both transitions are allowed at any time.
const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Actor is the authenticated identity performing a mutating operation.
type Actor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// IsZero reports whether the actor is anonymous.
func (a Actor) IsZero() bool {
	return a.Username == ""
}
