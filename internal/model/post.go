// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// PostExcerptMaxLength is the maximum excerpt length in characters.
const PostExcerptMaxLength = 200

// Post is a blog article.
type Post struct {
	ID            string    `json:"id" bson:"_id"`
	Title         string    `json:"title" bson:"title" validate:"required"`
	Slug          string    `json:"slug" bson:"slug" validate:"required"`
	Author        string    `json:"author" bson:"author" validate:"required"`
	FeaturedImage string    `json:"featuredImage" bson:"featuredImage"`
	Excerpt       string    `json:"excerpt" bson:"excerpt" validate:"max=200"`
	Content       string    `json:"content" bson:"content" validate:"required"`
	Status        Status    `json:"status" bson:"status" validate:"oneof=draft published"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

// PostInput carries client-supplied fields for create and update.
// Nil pointers mean "not supplied". Author is never read from input.
type PostInput struct {
	Title         *string `json:"title"`
	Slug          *string `json:"slug"`
	FeaturedImage *string `json:"featuredImage"`
	Excerpt       *string `json:"excerpt"`
	Content       *string `json:"content"`
	Status        *Status `json:"status"`
}

// PostFilter narrows post listings. A zero Status lists every post.
type PostFilter struct {
	Status Status
}
