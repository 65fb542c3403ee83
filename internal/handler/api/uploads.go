// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"

	"github.com/olegiv/ofolio/internal/model"
	"github.com/olegiv/ofolio/internal/service"
)

// uploadField is the multipart field carrying the image.
const uploadField = "image"

// multipartOverhead is allowed on top of the file limit for headers and
// boundaries.
const multipartOverhead = 64 << 10

// Dimensions is a pixel size.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ResponsiveURLs lists the blog derivatives by display size.
type ResponsiveURLs struct {
	Large  string `json:"large"`
	Medium string `json:"medium"`
	Small  string `json:"small"`
}

// UploadResponse describes a processed upload.
type UploadResponse struct {
	ImageURL       string                `json:"imageUrl"`
	ThumbnailURL   string                `json:"thumbnailUrl,omitempty"`
	ResponsiveURLs *ResponsiveURLs       `json:"responsiveUrls,omitempty"`
	BaseName       string                `json:"baseName"`
	Format         model.ImageFormat     `json:"format"`
	OriginalName   string                `json:"originalName"`
	OriginalSize   int64                 `json:"originalSize"`
	OptimizedSize  int64                 `json:"optimizedSize"`
	ThumbnailSize  int64                 `json:"thumbnailSize,omitempty"`
	Dimensions     map[string]Dimensions `json:"dimensions"`
	Variants       []model.UploadFile    `json:"variants"`
}

// newUploadResponse builds the response for u.
func newUploadResponse(u *model.Upload) UploadResponse {
	resp := UploadResponse{
		BaseName:     u.BaseName,
		Format:       u.Format,
		OriginalName: u.OriginalName,
		OriginalSize: u.OriginalSize,
		Dimensions: map[string]Dimensions{
			"original": {Width: u.Width, Height: u.Height},
		},
		Variants: u.Files,
	}
	for _, f := range u.Files {
		resp.Dimensions[f.Variant] = Dimensions{Width: f.Width, Height: f.Height}
	}

	if f, ok := u.File(model.VariantOptimized); ok {
		resp.ImageURL = f.URL
		resp.OptimizedSize = f.Size
	}
	if f, ok := u.File(model.VariantThumb); ok {
		resp.ThumbnailURL = f.URL
		resp.ThumbnailSize = f.Size
	}
	if u.Namespace == model.NamespaceBlog {
		urls := &ResponsiveURLs{Large: resp.ImageURL}
		if f, ok := u.File(model.VariantMedium); ok {
			urls.Medium = f.URL
		}
		if f, ok := u.File(model.VariantSmall); ok {
			urls.Small = f.URL
		}
		resp.ResponsiveURLs = urls
	}
	return resp
}

// uploadImage reads the multipart image field and runs it through the
// derivative pipeline of ns.
func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request, ns model.Namespace) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadLimit()+multipartOverhead)
	if err := r.ParseMultipartForm(h.uploadLimit()); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeServiceError(w, r, err, "Upload")
			return
		}
		WriteBadRequest(w, "Invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		WriteBadRequest(w, "No image file provided")
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > h.uploadLimit() {
		h.writeServiceError(w, r, service.ErrFileTooLarge, "Upload")
		return
	}

	u, err := h.uploads.Upload(r.Context(), ns, file, header.Filename)
	if err != nil {
		h.writeServiceError(w, r, err, "Upload")
		return
	}
	WriteCreated(w, newUploadResponse(u))
}
