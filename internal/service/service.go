// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the content lifecycle: slug derivation,
// defaults and timestamps for posts and projects, image uploads and the
// cascade cleanup of derived images on delete.
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/olegiv/ofolio/internal/model"
)

// ErrNoActor is returned when a mutating operation has no authenticated actor.
var ErrNoActor = errors.New("operation requires an authenticated actor")

// PostRepository is the persistence contract for posts.
type PostRepository interface {
	Create(ctx context.Context, p *model.Post) error
	Get(ctx context.Context, id string) (*model.Post, error)
	GetBySlug(ctx context.Context, slug string) (*model.Post, error)
	List(ctx context.Context, f model.PostFilter) ([]model.Post, error)
	Update(ctx context.Context, p *model.Post) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// ProjectRepository is the persistence contract for projects.
type ProjectRepository interface {
	Create(ctx context.Context, p *model.Project) error
	Get(ctx context.Context, id string) (*model.Project, error)
	GetBySlug(ctx context.Context, slug string) (*model.Project, error)
	List(ctx context.Context, f model.ProjectFilter) ([]model.Project, int, error)
	Update(ctx context.Context, p *model.Project) error
	Delete(ctx context.Context, id string) error
}

// UploadRepository is the persistence contract for upload manifests.
type UploadRepository interface {
	Create(ctx context.Context, u *model.Upload) error
	GetByBaseName(ctx context.Context, ns model.Namespace, base string) (*model.Upload, error)
	DeleteByBaseName(ctx context.Context, ns model.Namespace, base string) error
}

// ValidationError reports field-level input problems.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// newValidationError builds a ValidationError for a single field.
func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// newValidator returns a validator that reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs v over s and converts failures into a ValidationError.
func validateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating: %w", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "gte":
		return "must be at least " + fe.Param()
	default:
		return "is invalid"
	}
}

// clock is embedded by services that stamp timestamps.
type clock struct {
	now func() time.Time
}

func (c *clock) timestamp() time.Time {
	if c.now == nil {
		return time.Now().UTC()
	}
	return c.now().UTC()
}

// SetClock replaces the time source. Intended for tests.
func (c *clock) SetClock(now func() time.Time) {
	c.now = now
}

func trimmed(s *string) string {
	return strings.TrimSpace(*s)
}
