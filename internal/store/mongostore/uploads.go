// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/olegiv/ofolio/internal/model"
)

// UploadStore persists upload manifests.
type UploadStore struct {
	coll *mongo.Collection
}

// Create records a manifest, assigning an ID when empty.
func (s *UploadStore) Create(ctx context.Context, u *model.Upload) error {
	if u.ID == "" {
		u.ID = newID()
	}
	if _, err := s.coll.InsertOne(ctx, u); err != nil {
		return fmt.Errorf("inserting upload: %w", err)
	}
	return nil
}

// GetByBaseName returns the manifest for base within ns.
func (s *UploadStore) GetByBaseName(ctx context.Context, ns model.Namespace, base string) (*model.Upload, error) {
	var u model.Upload
	err := s.coll.FindOne(ctx, bson.M{"namespace": ns, "baseName": base}).Decode(&u)
	if err != nil {
		return nil, mapFindErr(err)
	}
	return &u, nil
}

// DeleteByBaseName removes the manifest for base within ns. A missing
// manifest is not an error.
func (s *UploadStore) DeleteByBaseName(ctx context.Context, ns model.Namespace, base string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"namespace": ns, "baseName": base}); err != nil {
		return fmt.Errorf("deleting upload: %w", err)
	}
	return nil
}
