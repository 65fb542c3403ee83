// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/olegiv/ofolio/internal/imaging"
	"github.com/olegiv/ofolio/internal/model"
)

var sweptEntries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ofolio_stale_uploads_removed_total",
	Help: "Stale raw uploads and staging directories removed by the sweeper.",
}, []string{"namespace", "kind"})

// Sweeper removes leftovers of interrupted uploads: raw source files in a
// namespace root and staging directories.
type Sweeper struct {
	root   string
	maxAge time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewSweeper creates a sweeper over the uploads root. Entries younger than
// maxAge are left alone since an upload may still be in flight.
func NewSweeper(root string, maxAge time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{root: root, maxAge: maxAge, now: time.Now, logger: logger}
}

// Sweep removes stale entries from every namespace and returns how many it
// removed.
func (sw *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := sw.now().Add(-sw.maxAge)
	removed := 0
	var errs []error

	for _, ns := range []model.Namespace{model.NamespaceBlog, model.NamespaceProjects} {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		n, err := sw.sweepRaw(ns, cutoff)
		removed += n
		errs = append(errs, err)

		n, err = sw.sweepStaging(ns, cutoff)
		removed += n
		errs = append(errs, err)
	}

	if removed > 0 {
		sw.logger.Info("swept stale uploads", "removed", removed)
	}
	return removed, errors.Join(errs...)
}

// sweepRaw removes source files named "<prefix>-..." directly under the
// namespace directory. Derivatives live in subdirectories and are skipped.
func (sw *Sweeper) sweepRaw(ns model.Namespace, cutoff time.Time) (int, error) {
	dir := filepath.Join(sw.root, string(ns))
	entries, err := readDir(dir)
	if err != nil {
		return 0, err
	}

	prefix := ns.FilePrefix() + "-"
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		if !olderThan(e, cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			sw.logger.Warn("failed to remove stale upload", "namespace", ns, "name", e.Name(), "error", err)
			continue
		}
		removed++
		sweptEntries.WithLabelValues(string(ns), "raw").Inc()
	}
	return removed, nil
}

func (sw *Sweeper) sweepStaging(ns model.Namespace, cutoff time.Time) (int, error) {
	dir := filepath.Join(sw.root, string(ns), imaging.StagingDir)
	entries, err := readDir(dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if !olderThan(e, cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			sw.logger.Warn("failed to remove staging entry", "namespace", ns, "name", e.Name(), "error", err)
			continue
		}
		removed++
		sweptEntries.WithLabelValues(string(ns), "staging").Inc()
	}
	return removed, nil
}

// readDir lists dir, treating a missing directory as empty.
func readDir(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return entries, err
}

func olderThan(e os.DirEntry, cutoff time.Time) bool {
	info, err := e.Info()
	if err != nil {
		return false
	}
	return info.ModTime().Before(cutoff)
}
