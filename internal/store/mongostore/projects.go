// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/olegiv/ofolio/internal/model"
)

// ProjectStore persists projects.
type ProjectStore struct {
	coll *mongo.Collection
}

// Create inserts p, assigning an ID when empty.
func (s *ProjectStore) Create(ctx context.Context, p *model.Project) error {
	if p.ID == "" {
		p.ID = newID()
	}
	normalizeLists(p)
	if _, err := s.coll.InsertOne(ctx, p); err != nil {
		return mapWriteErr(err, "inserting project")
	}
	return nil
}

// Get returns the project with the given ID.
func (s *ProjectStore) Get(ctx context.Context, id string) (*model.Project, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetBySlug returns the project with the given slug.
func (s *ProjectStore) GetBySlug(ctx context.Context, slug string) (*model.Project, error) {
	return s.findOne(ctx, bson.M{"slug": slug})
}

func (s *ProjectStore) findOne(ctx context.Context, filter bson.M) (*model.Project, error) {
	var p model.Project
	if err := s.coll.FindOne(ctx, filter).Decode(&p); err != nil {
		return nil, mapFindErr(err)
	}
	normalizeLists(&p)
	return &p, nil
}

// List returns the projects matching f and the total number of matches
// ignoring Limit and Offset.
func (s *ProjectStore) List(ctx context.Context, f model.ProjectFilter) ([]model.Project, int, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("counting projects: %w", err)
	}

	sort := bson.D{}
	if f.FeaturedFirst {
		sort = append(sort, bson.E{Key: "isFeatured", Value: -1})
	}
	sort = append(sort, bson.E{Key: "createdAt", Value: -1}, bson.E{Key: "_id", Value: -1})
	opts := options.Find().SetSort(sort)
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit)).SetSkip(int64(f.Offset))
	}

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("listing projects: %w", err)
	}
	projects := make([]model.Project, 0)
	if err := cur.All(ctx, &projects); err != nil {
		return nil, 0, fmt.Errorf("decoding projects: %w", err)
	}
	for i := range projects {
		normalizeLists(&projects[i])
	}
	return projects, int(total), nil
}

// Update overwrites every stored field of p except createdAt.
func (s *ProjectStore) Update(ctx context.Context, p *model.Project) error {
	normalizeLists(p)
	res, err := s.coll.UpdateByID(ctx, p.ID, bson.M{"$set": bson.M{
		"title":           p.Title,
		"slug":            p.Slug,
		"category":        p.Category,
		"description":     p.Description,
		"longDescription": p.LongDescription,
		"featuredImage":   p.FeaturedImage,
		"galleryImages":   p.GalleryImages,
		"tags":            p.Tags,
		"client":          p.Client,
		"year":            p.Year,
		"isFeatured":      p.IsFeatured,
		"status":          p.Status,
		"updatedAt":       p.UpdatedAt,
	}})
	if err != nil {
		return mapWriteErr(err, "updating project")
	}
	if res.MatchedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Delete removes the project with the given ID.
func (s *ProjectStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

// normalizeLists keeps list fields as empty arrays rather than null.
func normalizeLists(p *model.Project) {
	if p.GalleryImages == nil {
		p.GalleryImages = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
}
