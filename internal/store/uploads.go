// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/olegiv/ofolio/internal/model"
)

const uploadColumns = `id, base_name, namespace, format, original_name, original_size, width, height, files, created_at`

// UploadStore persists upload manifests.
type UploadStore struct {
	db *sql.DB
}

// NewUploadStore creates an upload manifest store over db.
func NewUploadStore(db *sql.DB) *UploadStore {
	return &UploadStore{db: db}
}

// Create records a manifest, assigning an ID when empty.
func (s *UploadStore) Create(ctx context.Context, u *model.Upload) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	files, err := json.Marshal(u.Files)
	if err != nil {
		return fmt.Errorf("encoding upload files: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO uploads (`+uploadColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.BaseName, string(u.Namespace), string(u.Format), u.OriginalName,
		u.OriginalSize, u.Width, u.Height, string(files), formatTime(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting upload: %w", err)
	}
	return nil
}

// GetByBaseName returns the manifest for base within ns.
func (s *UploadStore) GetByBaseName(ctx context.Context, ns model.Namespace, base string) (*model.Upload, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+uploadColumns+` FROM uploads
		WHERE namespace = ? AND base_name = ?`, string(ns), base)

	var (
		u             model.Upload
		nsName, fmtID string
		files         string
		created       string
	)
	err := row.Scan(&u.ID, &u.BaseName, &nsName, &fmtID, &u.OriginalName, &u.OriginalSize,
		&u.Width, &u.Height, &files, &created)
	if err != nil {
		return nil, notFound(err, model.ErrNotFound)
	}
	u.Namespace = model.Namespace(nsName)
	u.Format = model.ImageFormat(fmtID)
	if err := json.Unmarshal([]byte(files), &u.Files); err != nil {
		return nil, fmt.Errorf("decoding upload files: %w", err)
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteByBaseName removes the manifest for base within ns. A missing
// manifest is not an error.
func (s *UploadStore) DeleteByBaseName(ctx context.Context, ns model.Namespace, base string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM uploads WHERE namespace = ? AND base_name = ?`,
		string(ns), base)
	if err != nil {
		return fmt.Errorf("deleting upload: %w", err)
	}
	return nil
}
