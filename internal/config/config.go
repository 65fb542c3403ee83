// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the service configuration from OFOLIO_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains example secrets that must never sign tokens.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
	"your-super-secret-jwt-key-change-this",
}

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// MinJWTSecretLength is the minimum length of the token signing key.
const MinJWTSecretLength = 32

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Env        string `env:"OFOLIO_ENV" envDefault:"development"`
	ServerHost string `env:"OFOLIO_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"OFOLIO_SERVER_PORT" envDefault:"5000"`
	LogLevel   string `env:"OFOLIO_LOG_LEVEL" envDefault:"info"`

	// Storage
	StoreDriver   string `env:"OFOLIO_STORE_DRIVER" envDefault:"sqlite"`
	DBPath        string `env:"OFOLIO_DB_PATH" envDefault:"./data/ofolio.db"`
	MongoURI      string `env:"OFOLIO_MONGO_URI"`
	MongoDatabase string `env:"OFOLIO_MONGO_DATABASE" envDefault:"ofolio"`

	// Uploads
	UploadsDir    string `env:"OFOLIO_UPLOADS_DIR" envDefault:"./uploads"`
	MaxUploadSize int64  `env:"OFOLIO_MAX_UPLOAD_SIZE" envDefault:"5242880"`
	ImageFormat   string `env:"OFOLIO_IMAGE_FORMAT" envDefault:"webp"`

	// Admin authentication
	JWTSecret         string        `env:"OFOLIO_JWT_SECRET,required"`
	TokenTTL          time.Duration `env:"OFOLIO_TOKEN_TTL" envDefault:"168h"`
	AdminUsername     string        `env:"OFOLIO_ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword     string        `env:"OFOLIO_ADMIN_PASSWORD"`
	AdminPasswordHash string        `env:"OFOLIO_ADMIN_PASSWORD_HASH"`

	// HTTP policy
	CORSOrigins    []string      `env:"OFOLIO_CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`
	RateLimit      int           `env:"OFOLIO_RATE_LIMIT" envDefault:"100"`
	RateWindow     time.Duration `env:"OFOLIO_RATE_WINDOW" envDefault:"15m"`
	RateBurst      int           `env:"OFOLIO_RATE_BURST" envDefault:"100"`
	RequestTimeout time.Duration `env:"OFOLIO_REQUEST_TIMEOUT" envDefault:"60s"`
	FrontendDir    string        `env:"OFOLIO_FRONTEND_DIR"`

	// Cache
	RedisURL string        `env:"OFOLIO_REDIS_URL"`
	CacheTTL time.Duration `env:"OFOLIO_CACHE_TTL" envDefault:"5m"`

	// Contact mail
	SMTPHost     string `env:"OFOLIO_SMTP_HOST"`
	SMTPPort     int    `env:"OFOLIO_SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"OFOLIO_SMTP_USERNAME"`
	SMTPPassword string `env:"OFOLIO_SMTP_PASSWORD"`
	SMTPFrom     string `env:"OFOLIO_SMTP_FROM"`
	ContactTo    string `env:"OFOLIO_CONTACT_TO"`
	GeoIPDBPath  string `env:"OFOLIO_GEOIP_DB_PATH"`

	// Upload sweeper
	SweepSchedule  string        `env:"OFOLIO_SWEEP_SCHEDULE" envDefault:"@every 1h"`
	StaleUploadAge time.Duration `env:"OFOLIO_STALE_UPLOAD_AGE" envDefault:"1h"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// SMTPEnabled returns true if contact mail is delivered over SMTP.
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// ContactRecipient returns the address contact messages are sent to.
func (c Config) ContactRecipient() string {
	if c.ContactTo != "" {
		return c.ContactTo
	}
	return c.SMTPUsername
}

// Load parses the process environment and validates the result.
func Load() (*Config, error) {
	return LoadFrom(env.ToMap(os.Environ()))
}

// LoadFrom parses the given environment and validates the result.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	if len(c.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, fmt.Errorf("OFOLIO_JWT_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32", MinJWTSecretLength, len(c.JWTSecret)))
	}
	for _, weak := range knownWeakSecrets {
		if c.JWTSecret == weak {
			errs = append(errs, errors.New("OFOLIO_JWT_SECRET is a known default value and must not be used"))
		}
	}
	if c.JWTSecret != "" && !hasMinimumEntropy(c.JWTSecret) {
		slog.Warn("OFOLIO_JWT_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if c.AdminUsername == "" {
		errs = append(errs, errors.New("OFOLIO_ADMIN_USERNAME must not be empty"))
	}
	if c.AdminPassword == "" && c.AdminPasswordHash == "" {
		errs = append(errs, errors.New("one of OFOLIO_ADMIN_PASSWORD or OFOLIO_ADMIN_PASSWORD_HASH is required"))
	}

	switch c.StoreDriver {
	case DriverSQLite:
	case DriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("OFOLIO_MONGO_URI is required for the mongo store"))
		}
	default:
		errs = append(errs, fmt.Errorf("OFOLIO_STORE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverMongo, c.StoreDriver))
	}

	switch strings.ToLower(c.ImageFormat) {
	case "webp", "jpeg":
		c.ImageFormat = strings.ToLower(c.ImageFormat)
	default:
		errs = append(errs, fmt.Errorf("OFOLIO_IMAGE_FORMAT must be webp or jpeg, got %q", c.ImageFormat))
	}

	if c.MaxUploadSize <= 0 {
		errs = append(errs, errors.New("OFOLIO_MAX_UPLOAD_SIZE must be positive"))
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		errs = append(errs, errors.New("OFOLIO_RATE_LIMIT and OFOLIO_RATE_WINDOW must be positive"))
	}

	origins := c.CORSOrigins[:0]
	for _, o := range c.CORSOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	c.CORSOrigins = origins

	return errors.Join(errs...)
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
