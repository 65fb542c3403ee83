// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/olegiv/ofolio/internal/model"
)

const projectColumns = `id, title, slug, category, description, long_description, featured_image,
	gallery_images, tags, client, year, is_featured, status, created_at, updated_at`

// ProjectStore persists projects.
type ProjectStore struct {
	db *sql.DB
}

// NewProjectStore creates a project store over db.
func NewProjectStore(db *sql.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

// Create inserts p, assigning an ID when empty.
func (s *ProjectStore) Create(ctx context.Context, p *model.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	gallery, tags, err := encodeLists(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Slug, p.Category, p.Description, p.LongDescription, p.FeaturedImage,
		gallery, tags, p.Client, p.Year, p.IsFeatured, string(p.Status),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if isUniqueViolation(err) {
		return model.ErrDuplicateSlug
	}
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

// Get returns the project with the given ID.
func (s *ProjectStore) Get(ctx context.Context, id string) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

// GetBySlug returns the project with the given slug.
func (s *ProjectStore) GetBySlug(ctx context.Context, slug string) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE slug = ?`, slug)
	return scanProject(row)
}

// List returns the projects matching f and the total number of matches
// ignoring Limit and Offset.
func (s *ProjectStore) List(ctx context.Context, f model.ProjectFilter) ([]model.Project, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting projects: %w", err)
	}

	query := `SELECT ` + projectColumns + ` FROM projects` + clause + ` ORDER BY `
	if f.FeaturedFirst {
		query += `is_featured DESC, `
	}
	query += `created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	projects := make([]model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// Update overwrites every stored field of p except created_at.
func (s *ProjectStore) Update(ctx context.Context, p *model.Project) error {
	gallery, tags, err := encodeLists(p)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE projects SET
		title = ?, slug = ?, category = ?, description = ?, long_description = ?,
		featured_image = ?, gallery_images = ?, tags = ?, client = ?, year = ?,
		is_featured = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		p.Title, p.Slug, p.Category, p.Description, p.LongDescription,
		p.FeaturedImage, gallery, tags, p.Client, p.Year,
		p.IsFeatured, string(p.Status), formatTime(p.UpdatedAt), p.ID)
	if isUniqueViolation(err) {
		return model.ErrDuplicateSlug
	}
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	return requireAffected(res)
}

// Delete removes the project with the given ID.
func (s *ProjectStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	return requireAffected(res)
}

func encodeLists(p *model.Project) (gallery, tags string, err error) {
	gallery, err = encodeStrings(p.GalleryImages)
	if err != nil {
		return "", "", fmt.Errorf("encoding gallery images: %w", err)
	}
	tags, err = encodeStrings(p.Tags)
	if err != nil {
		return "", "", fmt.Errorf("encoding tags: %w", err)
	}
	return gallery, tags, nil
}

func encodeStrings(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	return string(b), err
}

func decodeStrings(s string) ([]string, error) {
	out := []string{}
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func scanProject(row scanner) (*model.Project, error) {
	var (
		p                model.Project
		gallery, tags    string
		status           string
		created, updated string
	)
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Category, &p.Description, &p.LongDescription,
		&p.FeaturedImage, &gallery, &tags, &p.Client, &p.Year, &p.IsFeatured, &status,
		&created, &updated)
	if err != nil {
		return nil, notFound(err, model.ErrNotFound)
	}
	if p.GalleryImages, err = decodeStrings(gallery); err != nil {
		return nil, fmt.Errorf("decoding gallery images: %w", err)
	}
	if p.Tags, err = decodeStrings(tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
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
