// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-Secret-key-32-bytes-long!!!"

func baseEnv() map[string]string {
	return map[string]string{
		"OFOLIO_JWT_SECRET":     testSecret,
		"OFOLIO_ADMIN_PASSWORD": "changeme",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(baseEnv())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "localhost:5000", cfg.ServerAddr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "./data/ofolio.db", cfg.DBPath)
	assert.Equal(t, "ofolio", cfg.MongoDatabase)
	assert.Equal(t, "./uploads", cfg.UploadsDir)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadSize)
	assert.Equal(t, "webp", cfg.ImageFormat)
	assert.Equal(t, 168*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, 100, cfg.RateLimit)
	assert.Equal(t, 15*time.Minute, cfg.RateWindow)
	assert.Equal(t, 100, cfg.RateBurst)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.False(t, cfg.SMTPEnabled())
	assert.Equal(t, "@every 1h", cfg.SweepSchedule)
	assert.Equal(t, time.Hour, cfg.StaleUploadAge)
}

func TestLoadCustomValues(t *testing.T) {
	environ := baseEnv()
	environ["OFOLIO_ENV"] = "production"
	environ["OFOLIO_SERVER_HOST"] = "0.0.0.0"
	environ["OFOLIO_SERVER_PORT"] = "8080"
	environ["OFOLIO_STORE_DRIVER"] = "mongo"
	environ["OFOLIO_MONGO_URI"] = "mongodb://localhost:27017"
	environ["OFOLIO_IMAGE_FORMAT"] = "JPEG"
	environ["OFOLIO_CORS_ORIGINS"] = "https://example.com/, https://admin.example.com"
	environ["OFOLIO_SMTP_HOST"] = "smtp.example.com"
	environ["OFOLIO_SMTP_USERNAME"] = "site@example.com"
	environ["OFOLIO_TOKEN_TTL"] = "24h"

	cfg, err := LoadFrom(environ)
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddr())
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, "jpeg", cfg.ImageFormat)
	assert.Equal(t, []string{"https://example.com", "https://admin.example.com"}, cfg.CORSOrigins)
	assert.True(t, cfg.SMTPEnabled())
	assert.Equal(t, "site@example.com", cfg.ContactRecipient())
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)

	environ["OFOLIO_CONTACT_TO"] = "owner@example.com"
	cfg, err = LoadFrom(environ)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", cfg.ContactRecipient())
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	_, err := LoadFrom(map[string]string{"OFOLIO_ADMIN_PASSWORD": "x"})
	assert.Error(t, err)
}

func TestLoadRejectsBadSecrets(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"short", "short"},
		{"31 bytes", "1234567890123456789012345678901"},
		{"known default", "change-me-to-32-byte-secret-key!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			environ := baseEnv()
			environ["OFOLIO_JWT_SECRET"] = tt.secret
			_, err := LoadFrom(environ)
			assert.ErrorContains(t, err, "OFOLIO_JWT_SECRET")
		})
	}
}

func TestLoadAcceptsMinimumLengthSecret(t *testing.T) {
	environ := baseEnv()
	environ["OFOLIO_JWT_SECRET"] = "12345678901234567890123456789012"
	_, err := LoadFrom(environ)
	assert.NoError(t, err)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"unknown driver", "OFOLIO_STORE_DRIVER", "postgres", "OFOLIO_STORE_DRIVER"},
		{"mongo without uri", "OFOLIO_STORE_DRIVER", "mongo", "OFOLIO_MONGO_URI"},
		{"bad format", "OFOLIO_IMAGE_FORMAT", "gif", "OFOLIO_IMAGE_FORMAT"},
		{"zero upload size", "OFOLIO_MAX_UPLOAD_SIZE", "0", "OFOLIO_MAX_UPLOAD_SIZE"},
		{"zero rate limit", "OFOLIO_RATE_LIMIT", "0", "OFOLIO_RATE_LIMIT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			environ := baseEnv()
			environ[tt.key] = tt.value
			_, err := LoadFrom(environ)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadRequiresAdminPassword(t *testing.T) {
	_, err := LoadFrom(map[string]string{"OFOLIO_JWT_SECRET": testSecret})
	assert.ErrorContains(t, err, "OFOLIO_ADMIN_PASSWORD")

	_, err = LoadFrom(map[string]string{
		"OFOLIO_JWT_SECRET":          testSecret,
		"OFOLIO_ADMIN_PASSWORD_HASH": "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$a2V5",
	})
	assert.NoError(t, err)
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"abcdefghijklmnopqrstuvwxyzabcdef", false},
		{"abcdefghijklmnop1234567890123456", false},
		{"abcdefghABCDEFGH1234567890123456", true},
		{"abcd-efgh-1234-5678-abcd-efgh-12", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, hasMinimumEntropy(tt.secret), tt.secret)
	}
}
