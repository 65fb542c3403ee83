// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mongostore persists posts, projects and upload manifests in
// MongoDB. It mirrors the SQLite store method for method so services can
// run on either backend.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/olegiv/ofolio/internal/model"
)

// Collection names.
const (
	PostsCollection    = "posts"
	ProjectsCollection = "projects"
	UploadsCollection  = "uploads"
)

// Store owns the client and hands out per-collection stores.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, verifies the connection and ensures indexes exist.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Posts returns the post store.
func (s *Store) Posts() *PostStore {
	return &PostStore{coll: s.db.Collection(PostsCollection)}
}

// Projects returns the project store.
func (s *Store) Projects() *ProjectStore {
	return &ProjectStore{coll: s.db.Collection(ProjectsCollection)}
}

// Uploads returns the upload manifest store.
func (s *Store) Uploads() *UploadStore {
	return &UploadStore{coll: s.db.Collection(UploadsCollection)}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		PostsCollection: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		ProjectsCollection: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "isFeatured", Value: -1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		UploadsCollection: {
			{Keys: bson.D{{Key: "namespace", Value: 1}, {Key: "baseName", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("creating %s indexes: %w", coll, err)
		}
	}
	return nil
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

func mapFindErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.ErrNotFound
	}
	return err
}

func mapWriteErr(err error, op string) error {
	if mongo.IsDuplicateKeyError(err) {
		return model.ErrDuplicateSlug
	}
	return fmt.Errorf("%s: %w", op, err)
}

// PostStore persists posts.
type PostStore struct {
	coll *mongo.Collection
}

// Create inserts p, assigning an ID when empty.
func (s *PostStore) Create(ctx context.Context, p *model.Post) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if _, err := s.coll.InsertOne(ctx, p); err != nil {
		return mapWriteErr(err, "inserting post")
	}
	return nil
}

// Get returns the post with the given ID.
func (s *PostStore) Get(ctx context.Context, id string) (*model.Post, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetBySlug returns the post with the given slug.
func (s *PostStore) GetBySlug(ctx context.Context, slug string) (*model.Post, error) {
	return s.findOne(ctx, bson.M{"slug": slug})
}

func (s *PostStore) findOne(ctx context.Context, filter bson.M) (*model.Post, error) {
	var p model.Post
	if err := s.coll.FindOne(ctx, filter).Decode(&p); err != nil {
		return nil, mapFindErr(err)
	}
	return &p, nil
}

// List returns posts matching f, newest first.
func (s *PostStore) List(ctx context.Context, f model.PostFilter) ([]model.Post, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	posts := make([]model.Post, 0)
	if err := cur.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decoding posts: %w", err)
	}
	return posts, nil
}

// Update overwrites every stored field of p except createdAt.
func (s *PostStore) Update(ctx context.Context, p *model.Post) error {
	res, err := s.coll.UpdateByID(ctx, p.ID, bson.M{"$set": bson.M{
		"title":         p.Title,
		"slug":          p.Slug,
		"author":        p.Author,
		"featuredImage": p.FeaturedImage,
		"excerpt":       p.Excerpt,
		"content":       p.Content,
		"status":        p.Status,
		"updatedAt":     p.UpdatedAt,
	}})
	if err != nil {
		return mapWriteErr(err, "updating post")
	}
	if res.MatchedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Delete removes the post with the given ID.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

// DeleteAll removes every post and returns how many were removed.
func (s *PostStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("deleting posts: %w", err)
	}
	return res.DeletedCount, nil
}
