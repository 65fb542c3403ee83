// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mozillazg/go-unidecode"

	"github.com/olegiv/ofolio/internal/imaging"
	"github.com/olegiv/ofolio/internal/model"
	"github.com/olegiv/ofolio/internal/util"
)

// DefaultMaxUploadSize is the upload limit used when none is configured.
const DefaultMaxUploadSize int64 = 5 << 20

// Upload errors.
var (
	ErrNotImage     = errors.New("only image files are allowed")
	ErrFileTooLarge = errors.New("file exceeds the upload size limit")
)

// UploadService accepts an image, stores it transiently and turns it into
// the derivatives of its namespace.
type UploadService struct {
	clock
	processor *imaging.Processor
	uploads   UploadRepository
	maxSize   int64
	logger    *slog.Logger
}

// NewUploadService creates an UploadService. uploads may be nil to skip
// recording manifests; maxSize <= 0 selects DefaultMaxUploadSize.
func NewUploadService(processor *imaging.Processor, uploads UploadRepository, maxSize int64, logger *slog.Logger) *UploadService {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &UploadService{
		processor: processor,
		uploads:   uploads,
		maxSize:   maxSize,
		logger:    logger,
	}
}

// MaxSize returns the upload limit in bytes.
func (s *UploadService) MaxSize() int64 {
	return s.maxSize
}

// Upload stores r under a generated name in ns, generates its derivatives
// and records the manifest. originalName is only reported back.
func (s *UploadService) Upload(ctx context.Context, ns model.Namespace, r io.Reader, originalName string) (*model.Upload, error) {
	if !ns.Valid() {
		return nil, fmt.Errorf("%w: %q", imaging.ErrUnknownNamespace, ns)
	}

	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	mimeType := http.DetectContentType(head)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, ErrNotImage
	}

	name := s.storageName(ns, originalName, mimeType)
	src, err := util.SafeJoinPath(s.processor.Root(), string(ns), name)
	if err != nil {
		return nil, fmt.Errorf("resolving upload path: %w", err)
	}
	if err := s.writeSource(src, br); err != nil {
		return nil, err
	}

	res, err := s.processor.Generate(src, ns)
	if err != nil {
		s.logger.WarnContext(ctx, "image processing failed", "namespace", ns, "name", name, "error", err)
		return nil, err
	}

	u := &model.Upload{
		BaseName:     res.BaseName,
		Namespace:    ns,
		Format:       res.Format,
		OriginalName: displayName(originalName),
		OriginalSize: res.OriginalSize,
		Width:        res.Width,
		Height:       res.Height,
		Files:        res.Variants,
		CreatedAt:    s.timestamp(),
	}
	if s.uploads != nil {
		if err := s.uploads.Create(ctx, u); err != nil {
			s.logger.WarnContext(ctx, "failed to record upload manifest", "base", u.BaseName, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "image uploaded",
		"namespace", ns, "base", u.BaseName, "original_size", u.OriginalSize, "variants", len(u.Files))
	return u, nil
}

// writeSource copies at most maxSize bytes to dst. Anything larger is
// rejected and the partial file removed.
func (s *UploadService) writeSource(dst string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating upload dir: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating upload file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && n > s.maxSize {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = os.Remove(dst)
		if errors.Is(err, ErrFileTooLarge) {
			return err
		}
		return fmt.Errorf("writing upload: %w", err)
	}
	return nil
}

// storageName builds "<prefix>-<unixmillis>-<random><ext>". The extension
// comes from the client name when it is a known image extension and from
// the sniffed type otherwise.
func (s *UploadService) storageName(ns model.Namespace, originalName, mimeType string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !knownImageExt(ext) {
		ext = extForMime(mimeType)
	}
	return ns.FilePrefix() + "-" +
		strconv.FormatInt(s.timestamp().UnixMilli(), 10) + "-" +
		strconv.Itoa(rand.IntN(1e9)) + ext
}

func knownImageExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}

func extForMime(mimeType string) string {
	switch mimeType {
	case model.MimeTypeJPEG:
		return ".jpg"
	case model.MimeTypePNG:
		return ".png"
	case model.MimeTypeGIF:
		return ".gif"
	case model.MimeTypeWebP:
		return ".webp"
	default:
		return ".img"
	}
}

// displayName folds the client filename to ASCII and strips directories.
func displayName(originalName string) string {
	name, err := util.SanitizeFilename(unidecode.Unidecode(originalName))
	if err != nil {
		return "upload"
	}
	return name
}
