// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version provides build-time version information.
package version

import (
	"fmt"
	"runtime/debug"
)

// Info contains build-time version information injected via ldflags.
type Info struct {
	Version   string // Semantic version from git tags (e.g., "v1.2.3")
	GitCommit string // Short git commit hash (e.g., "abc1234")
	BuildTime string // Build timestamp in RFC3339 format
}

// New fills empty fields from the module build info, so "go install"
// builds report something useful without ldflags.
func New(ver, commit, built string) Info {
	info := Info{Version: ver, GitCommit: commit, BuildTime: built}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "" || info.Version == "dev" {
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			info.Version = v
		}
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && (info.GitCommit == "" || info.GitCommit == "unknown"):
			info.GitCommit = shortRevision(s.Value)
		case s.Key == "vcs.time" && (info.BuildTime == "" || info.BuildTime == "unknown"):
			info.BuildTime = s.Value
		}
	}
	return info
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// String formats the info for -version output.
func (i Info) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", i.Version, i.GitCommit, i.BuildTime)
}
