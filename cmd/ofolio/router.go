// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olegiv/ofolio/internal/config"
	"github.com/olegiv/ofolio/internal/handler/api"
	"github.com/olegiv/ofolio/internal/middleware"
)

const (
	uploadsPrefix = "/uploads"

	contactLimit  = 10
	contactWindow = 15 * time.Minute

	// Upload names are unique per upload, so derivatives never change.
	uploadsMaxAge = 7 * 24 * time.Hour
	assetsMaxAge  = 365 * 24 * time.Hour
)

// newRouter assembles the middleware stack, the API, uploads, metrics and
// the optional frontend bundle.
func newRouter(cfg *config.Config, h *api.Handler, limits api.Limits, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(chimw.Compress(5, "application/json", "text/html", "text/css", "application/javascript", "image/svg+xml"))

	r.Mount("/api", middleware.Timeout(cfg.RequestTimeout)(h.Routes(limits)))

	uploads := http.StripPrefix(uploadsPrefix+"/", http.FileServer(http.Dir(cfg.UploadsDir)))
	r.Handle(uploadsPrefix+"/*", middleware.StaticCache(uploadsMaxAge, true)(middleware.NoListing(uploads)))

	r.Handle("/metrics", promhttp.Handler())

	if cfg.FrontendDir != "" {
		r.Handle("/*", spaHandler(os.DirFS(cfg.FrontendDir)))
	} else {
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			api.WriteNotFound(w, "Route not found")
		})
	}
	return r
}

// spaHandler serves files from fsys and answers every other GET with
// index.html so client-side routes resolve. Hashed assets get a long cache
// lifetime; index.html is always revalidated.
func spaHandler(fsys fs.FS) http.Handler {
	files := http.FileServerFS(fsys)
	assets := middleware.StaticCache(assetsMaxAge, true)(files)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name != "" && name != "index.html" {
			if info, err := fs.Stat(fsys, name); err == nil && !info.IsDir() {
				if strings.HasPrefix(name, "assets/") {
					assets.ServeHTTP(w, r)
					return
				}
				files.ServeHTTP(w, r)
				return
			}
		}

		data, err := fs.ReadFile(fsys, "index.html")
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(data)
	})
}
