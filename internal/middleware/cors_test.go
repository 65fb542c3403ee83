// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	handler := CORS([]string{"http://localhost:5173", " https://example.com/ "})(okHandler())

	tests := []struct {
		name       string
		method     string
		origin     string
		preflight  bool
		wantCode   int
		wantOrigin string
	}{
		{"allowed origin", http.MethodGet, "http://localhost:5173", false, http.StatusOK, "http://localhost:5173"},
		{"normalized origin", http.MethodGet, "https://example.com", false, http.StatusOK, "https://example.com"},
		{"foreign origin", http.MethodGet, "https://evil.test", false, http.StatusOK, ""},
		{"no origin", http.MethodGet, "", false, http.StatusOK, ""},
		{"preflight allowed", http.MethodOptions, "http://localhost:5173", true, http.StatusNoContent, "http://localhost:5173"},
		{"preflight foreign", http.MethodOptions, "https://evil.test", true, http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/posts", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, tt.wantOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantOrigin != "" {
				assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
			}
			if tt.preflight && tt.wantOrigin != "" {
				assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
				assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Authorization")
			}
			if tt.origin != "" {
				assert.Equal(t, "Origin", rr.Header().Get("Vary"))
			}
		})
	}
}
