// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging turns an uploaded raster image into the fixed set of
// resized derivatives defined by a namespace's variant policy, and
// reconstructs or removes those derivatives later.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
	"golang.org/x/sync/errgroup"

	"github.com/olegiv/ofolio/internal/model"
	"github.com/olegiv/ofolio/internal/util"
)

// StagingDir is the per-namespace directory holding in-progress derivatives.
const StagingDir = ".staging"

// Processing errors.
var (
	ErrProcessing        = errors.New("image processing failed")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrUnknownNamespace  = errors.New("unknown upload namespace")
)

// Result describes one processed upload.
type Result struct {
	BaseName     string
	Namespace    model.Namespace
	Format       model.ImageFormat
	OriginalSize int64
	Width        int
	Height       int
	Variants     []model.UploadFile
}

// Processor generates derivatives under an uploads root that is served
// publicly under publicPrefix.
type Processor struct {
	root         string
	publicPrefix string
	format       model.ImageFormat
	logger       *slog.Logger
}

// NewProcessor creates a processor. An empty format selects WebP.
func NewProcessor(root, publicPrefix string, format model.ImageFormat, logger *slog.Logger) *Processor {
	if format == "" {
		format = model.FormatWebP
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		root:         root,
		publicPrefix: "/" + strings.Trim(publicPrefix, "/"),
		format:       format,
		logger:       logger,
	}
}

// Root returns the uploads root directory.
func (p *Processor) Root() string {
	return p.root
}

// PublicPrefix returns the URL prefix the uploads root is served under.
func (p *Processor) PublicPrefix() string {
	return p.publicPrefix
}

// Generate decodes srcPath once and writes every derivative of ns into a
// staging directory, moving them into place only when all succeed. The
// source upload is removed whatever the outcome.
func (p *Processor) Generate(srcPath string, ns model.Namespace) (res *Result, err error) {
	defer func() {
		if rmErr := os.Remove(srcPath); rmErr != nil && !os.IsNotExist(rmErr) {
			p.logger.Warn("failed to remove source upload", "path", srcPath, "error", rmErr)
		}
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		uploadsProcessed.WithLabelValues(string(ns), outcome).Inc()
	}()

	variants := ns.Variants()
	if len(variants) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNamespace, ns)
	}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading upload: %v", ErrProcessing, err)
	}
	if DetectFormat(data) == "" {
		return nil, fmt.Errorf("%w: %w", ErrProcessing, ErrUnsupportedFormat)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding: %v", ErrProcessing, err)
	}
	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))

	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	staging, err := util.SafeJoinPath(p.root, string(ns), StagingDir, base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessing, err)
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating staging dir: %v", ErrProcessing, err)
	}
	defer func() {
		if rmErr := os.RemoveAll(staging); rmErr != nil {
			p.logger.Warn("failed to remove staging dir", "path", staging, "error", rmErr)
		}
	}()

	files := make([]model.UploadFile, len(variants))
	var g errgroup.Group
	for i, v := range variants {
		g.Go(func() error {
			f, err := p.writeVariant(img, staging, ns, base, v)
			if err != nil {
				return fmt.Errorf("%s variant: %w", v.Name, err)
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessing, err)
	}

	if err := p.commit(staging, files); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessing, err)
	}

	for _, f := range files {
		variantsWritten.WithLabelValues(string(ns), f.Variant).Inc()
	}

	bounds := img.Bounds()
	return &Result{
		BaseName:     base,
		Namespace:    ns,
		Format:       p.format,
		OriginalSize: int64(len(data)),
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		Variants:     files,
	}, nil
}

// writeVariant resizes img to fit v's box and encodes it into the staging dir.
func (p *Processor) writeVariant(img image.Image, staging string, ns model.Namespace, base string, v model.ImageVariantConfig) (model.UploadFile, error) {
	// Fit never upscales: a source inside the box comes back as a clone.
	resized := imaging.Fit(img, v.Width, v.Height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := encodeImage(&buf, resized, p.format, v.Quality); err != nil {
		return model.UploadFile{}, fmt.Errorf("encoding: %w", err)
	}

	name := DerivativeName(base, v.Name, p.format.Ext())
	if err := os.WriteFile(filepath.Join(staging, name), buf.Bytes(), 0o644); err != nil {
		return model.UploadFile{}, fmt.Errorf("writing: %w", err)
	}

	rel := path.Join(string(ns), v.Dir, name)
	b := resized.Bounds()
	return model.UploadFile{
		Variant: v.Name,
		Path:    rel,
		URL:     p.publicPrefix + "/" + rel,
		Width:   b.Dx(),
		Height:  b.Dy(),
		Size:    int64(buf.Len()),
	}, nil
}

// commit renames staged files into their final directories. On failure the
// files already moved are removed again.
func (p *Processor) commit(staging string, files []model.UploadFile) error {
	moved := make([]string, 0, len(files))
	for _, f := range files {
		dst, err := util.SafeJoinPath(p.root, filepath.FromSlash(f.Path))
		if err == nil {
			err = os.MkdirAll(filepath.Dir(dst), 0o755)
		}
		if err == nil {
			err = os.Rename(filepath.Join(staging, path.Base(f.Path)), dst)
		}
		if err != nil {
			for _, m := range moved {
				_ = os.Remove(m)
			}
			return fmt.Errorf("moving %s into place: %w", f.Variant, err)
		}
		moved = append(moved, dst)
	}
	return nil
}

// DerivativeName builds "<base>-<variant><ext>".
func DerivativeName(base, variant, ext string) string {
	return base + "-" + variant + ext
}

// DerivativePaths reconstructs the slash-separated paths, relative to the
// uploads root, of every derivative ns generates for base.
func DerivativePaths(ns model.Namespace, base, ext string) []string {
	variants := ns.Variants()
	paths := make([]string, 0, len(variants))
	for _, v := range variants {
		paths = append(paths, path.Join(string(ns), v.Dir, DerivativeName(base, v.Name, ext)))
	}
	return paths
}

// ParseOptimizedURL recognizes "<prefix>/<ns>/optimized/<base>-optimized<ext>"
// and returns the base name and extension. Absolute URLs are matched on
// their path so links stored with a host still resolve.
func (p *Processor) ParseOptimizedURL(ns model.Namespace, rawURL string) (base, ext string, ok bool) {
	marker := p.publicPrefix + "/" + string(ns) + "/" + model.DirOptimized + "/"
	i := strings.Index(rawURL, marker)
	if i < 0 {
		return "", "", false
	}
	name := rawURL[i+len(marker):]
	if j := strings.IndexAny(name, "?#"); j >= 0 {
		name = name[:j]
	}
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", "", false
	}

	ext = path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	base = strings.Replace(stem, "-"+model.VariantOptimized, "", 1)
	if base == "" {
		return "", "", false
	}
	return base, ext, true
}

// LocalPath maps a public URL under the uploads prefix to a file path.
func (p *Processor) LocalPath(rawURL string) (string, bool) {
	return util.LocalFileForURL(p.root, p.publicPrefix, rawURL)
}

// RemoveFiles deletes the given root-relative paths. Missing files are
// skipped silently; any other failure is logged and the sweep continues.
// It returns the number of files actually removed.
func (p *Processor) RemoveFiles(rels []string) int {
	removed := 0
	for _, rel := range rels {
		full, err := util.SafeJoinPath(p.root, filepath.FromSlash(rel))
		if err != nil {
			p.logger.Warn("refusing to remove path outside uploads", "path", rel)
			continue
		}
		if err := os.Remove(full); err != nil {
			if !os.IsNotExist(err) {
				p.logger.Warn("failed to remove image file", "path", full, "error", err)
			}
			continue
		}
		removed++
	}
	return removed
}

// RemoveLocalURL removes the file a local upload URL points at.
func (p *Processor) RemoveLocalURL(rawURL string) bool {
	full, ok := p.LocalPath(rawURL)
	if !ok {
		return false
	}
	if err := os.Remove(full); err != nil {
		if !os.IsNotExist(err) {
			p.logger.Warn("failed to remove image file", "path", full, "error", err)
		}
		return false
	}
	return true
}

// DetectFormat detects the image format from raw bytes and returns the
// empty string for anything the pipeline does not decode.
func DetectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	// TIFF is rejected outright (CVE-2023-36308 in disintegration/imaging)
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

func encodeImage(w io.Writer, img image.Image, format model.ImageFormat, quality int) error {
	switch format {
	case model.FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case model.FormatWebP:
		return webp.Encode(w, img, webp.Options{Quality: quality})
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// readExifOrientation returns the EXIF orientation tag, or 1 (normal) when
// it cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation applies an EXIF orientation transformation:
// 2 flip H, 3 rotate 180, 4 flip V, 5 rotate 90 CW + flip H,
// 6 rotate 90 CW, 7 rotate 90 CCW + flip H, 8 rotate 90 CCW.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
