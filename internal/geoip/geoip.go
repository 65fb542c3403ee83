// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip resolves a client IP to its country using a MaxMind
// GeoLite2-Country database. Without a database every lookup degrades to
// an unknown country.
package geoip

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"

	"github.com/olegiv/ofolio/internal/util"
)

// LocalCode is reported for addresses outside public routing.
const LocalCode = "LOCAL"

// Country is the result of a lookup.
type Country struct {
	Code string
	Name string
}

// Lookup is safe for concurrent use and can be reloaded in place.
type Lookup struct {
	mu      sync.RWMutex
	db      *maxminddb.Reader
	path    string
	modTime time.Time
}

type geoRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// Open loads the database at path. An empty path returns a disabled lookup.
func Open(path string) (*Lookup, error) {
	l := &Lookup{path: path}
	if path == "" {
		return l, nil
	}
	if err := l.load(); err != nil {
		return l, err
	}
	return l, nil
}

// load opens the database if it changed on disk. Caller holds mu.
func (l *Lookup) load() error {
	info, err := os.Stat(l.path)
	if err != nil {
		return fmt.Errorf("geoip database %s: %w", l.path, err)
	}
	if l.db != nil && info.ModTime().Equal(l.modTime) {
		return nil
	}

	db, err := maxminddb.Open(l.path)
	if err != nil {
		return fmt.Errorf("opening geoip database: %w", err)
	}
	if l.db != nil {
		_ = l.db.Close()
	}
	l.db = db
	l.modTime = info.ModTime()
	return nil
}

// Reload reopens the database when the file has been replaced.
func (l *Lookup) Reload() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.path == "" {
		return nil
	}
	return l.load()
}

// Enabled reports whether a database is loaded.
func (l *Lookup) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.db != nil
}

// Country resolves ip. Private, loopback and other reserved addresses map
// to LocalCode.
func (l *Lookup) Country(ip string) Country {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return countryFor("")
	}
	if util.IsReservedIP(ip) {
		return countryFor(LocalCode)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.db == nil {
		return countryFor("")
	}
	var rec geoRecord
	if err := l.db.Lookup(parsed, &rec); err != nil {
		return countryFor("")
	}
	return countryFor(rec.Country.ISOCode)
}

// Close releases the database.
func (l *Lookup) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

var countryNames = map[string]string{
	LocalCode: "Local Network",
	"US":      "United States",
	"GB":      "United Kingdom",
	"DE":      "Germany",
	"FR":      "France",
	"ES":      "Spain",
	"IT":      "Italy",
	"NL":      "Netherlands",
	"PL":      "Poland",
	"UA":      "Ukraine",
	"CA":      "Canada",
	"BR":      "Brazil",
	"AU":      "Australia",
	"JP":      "Japan",
	"IN":      "India",
	"CN":      "China",
}

func countryFor(code string) Country {
	if code == "" {
		return Country{Name: "Unknown"}
	}
	if name, ok := countryNames[code]; ok {
		return Country{Code: code, Name: name}
	}
	return Country{Code: code, Name: code}
}
