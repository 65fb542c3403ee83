// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/olegiv/ofolio/internal/model"
)

const postColumns = `id, title, slug, author, featured_image, excerpt, content, status, created_at, updated_at`

// PostStore persists posts.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a post store over db.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// Create inserts p, assigning an ID when empty. A slug collision returns
// model.ErrDuplicateSlug.
func (s *PostStore) Create(ctx context.Context, p *model.Post) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO posts (`+postColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Slug, p.Author, p.FeaturedImage, p.Excerpt, p.Content,
		string(p.Status), formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if isUniqueViolation(err) {
		return model.ErrDuplicateSlug
	}
	if err != nil {
		return fmt.Errorf("inserting post: %w", err)
	}
	return nil
}

// Get returns the post with the given ID.
func (s *PostStore) Get(ctx context.Context, id string) (*model.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

// GetBySlug returns the post with the given slug.
func (s *PostStore) GetBySlug(ctx context.Context, slug string) (*model.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug)
	return scanPost(row)
}

// List returns posts matching f, newest first.
func (s *PostStore) List(ctx context.Context, f model.PostFilter) ([]model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts`
	var args []any
	if f.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(f.Status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	posts := make([]model.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// Update overwrites every stored field of p except created_at.
func (s *PostStore) Update(ctx context.Context, p *model.Post) error {
	res, err := s.db.ExecContext(ctx, `UPDATE posts SET
		title = ?, slug = ?, author = ?, featured_image = ?, excerpt = ?,
		content = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		p.Title, p.Slug, p.Author, p.FeaturedImage, p.Excerpt,
		p.Content, string(p.Status), formatTime(p.UpdatedAt), p.ID)
	if isUniqueViolation(err) {
		return model.ErrDuplicateSlug
	}
	if err != nil {
		return fmt.Errorf("updating post: %w", err)
	}
	return requireAffected(res)
}

// Delete removes the post with the given ID.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	return requireAffected(res)
}

// DeleteAll removes every post and returns how many were removed.
func (s *PostStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts`)
	if err != nil {
		return 0, fmt.Errorf("deleting posts: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (*model.Post, error) {
	var (
		p                model.Post
		status           string
		created, updated string
	)
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Author, &p.FeaturedImage, &p.Excerpt,
		&p.Content, &status, &created, &updated)
	if err != nil {
		return nil, notFound(err, model.ErrNotFound)
	}
	p.Status = model.Status(status)
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
