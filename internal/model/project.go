// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Project is a portfolio entry.
type Project struct {
	ID              string    `json:"id" bson:"_id"`
	Title           string    `json:"title" bson:"title" validate:"required"`
	Slug            string    `json:"slug" bson:"slug" validate:"required"`
	Category        string    `json:"category" bson:"category" validate:"required"`
	Description     string    `json:"description" bson:"description" validate:"required"`
	LongDescription string    `json:"longDescription" bson:"longDescription"`
	FeaturedImage   string    `json:"featuredImage" bson:"featuredImage"`
	GalleryImages   []string  `json:"galleryImages" bson:"galleryImages"`
	Tags            []string  `json:"tags" bson:"tags"`
	Client          string    `json:"client" bson:"client"`
	Year            int       `json:"year" bson:"year" validate:"gte=0"`
	IsFeatured      bool      `json:"isFeatured" bson:"isFeatured"`
	Status          Status    `json:"status" bson:"status" validate:"oneof=draft published"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ProjectInput carries client-supplied fields for create and update.
// Nil pointers mean "not supplied"; a supplied slice replaces the stored one.
type ProjectInput struct {
	Title           *string   `json:"title"`
	Slug            *string   `json:"slug"`
	Category        *string   `json:"category"`
	Description     *string   `json:"description"`
	LongDescription *string   `json:"longDescription"`
	FeaturedImage   *string   `json:"featuredImage"`
	GalleryImages   *[]string `json:"galleryImages"`
	Tags            *[]string `json:"tags"`
	Client          *string   `json:"client"`
	Year            *int      `json:"year"`
	IsFeatured      *bool     `json:"isFeatured"`
	Status          *Status   `json:"status"`
}

// ProjectFilter narrows project listings. Zero values disable a criterion.
type ProjectFilter struct {
	Status   Status
	Category string
	// FeaturedFirst sorts by isFeatured desc before createdAt desc.
	FeaturedFirst bool
	// Limit of 0 means unpaginated.
	Limit  int
	Offset int
}
