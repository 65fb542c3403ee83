// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/ofolio/internal/auth"
	"github.com/olegiv/ofolio/internal/cache"
	"github.com/olegiv/ofolio/internal/imaging"
	"github.com/olegiv/ofolio/internal/middleware"
	"github.com/olegiv/ofolio/internal/model"
	"github.com/olegiv/ofolio/internal/service"
	"github.com/olegiv/ofolio/internal/store"
	"github.com/olegiv/ofolio/internal/testutil"
)

const (
	testUsername = "admin"
	testPassword = "correct horse battery staple"
	testSecret   = "test-secret-0123456789-abcdefghijklmnop"
)

// sharedHash avoids hashing the test password for every server.
var sharedHash = sync.OnceValue(func() string {
	h, err := auth.HashPassword(testPassword)
	if err != nil {
		panic(err)
	}
	return h
})

// outbox records contact mail.
type outbox struct {
	mu   sync.Mutex
	sent []service.Mail
}

func (o *outbox) Send(_ context.Context, m service.Mail) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, m)
	return nil
}

// testServer is the API router over real services on a temp database and
// uploads root.
type testServer struct {
	t       *testing.T
	root    string
	handler http.Handler
	mail    *outbox
	token   string
}

type serverOption func(*serverConfig)

type serverConfig struct {
	maxUpload int64
	format    model.ImageFormat
	limits    Limits
	login     middleware.LoginProtectionConfig
}

// withImageFormat selects the derivative encoding; an empty format is the
// production default.
func withImageFormat(f model.ImageFormat) serverOption {
	return func(c *serverConfig) { c.format = f }
}

func withUploadLimit(n int64) serverOption {
	return func(c *serverConfig) { c.maxUpload = n }
}

func withLimits(l Limits) serverOption {
	return func(c *serverConfig) { c.limits = l }
}

func withLogin(cfg middleware.LoginProtectionConfig) serverOption {
	return func(c *serverConfig) { c.login = cfg }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	cfg := serverConfig{
		format: model.FormatJPEG,
		login:  middleware.LoginProtectionConfig{IPLimit: 1000, IPWindow: time.Minute},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := testutil.TestLoggerSilent()
	db := testutil.TestDB(t)
	root := t.TempDir()
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	t.Cleanup(func() { _ = c.Close() })

	uploads := store.NewUploadStore(db)
	proc := imaging.NewProcessor(root, "/uploads", cfg.format, logger)
	images := service.NewImageCleaner(proc, uploads, logger)
	mail := &outbox{}
	authn := auth.NewAuthenticator(testUsername, sharedHash(),
		auth.NewTokenIssuer([]byte(testSecret), time.Hour))

	h := NewHandler(Deps{
		Posts:    service.NewPostService(store.NewPostStore(db), images, c, logger),
		Projects: service.NewProjectService(store.NewProjectStore(db), images, c, logger),
		Uploads:  service.NewUploadService(proc, uploads, cfg.maxUpload, logger),
		Contact:  service.NewContactService(mail, "owner@example.com", nil, logger),
		Auth:     authn,
		Login:    middleware.NewLoginProtection(cfg.login, logger),
		Logger:   logger,
	})

	session, err := authn.Login(testUsername, testPassword)
	require.NoError(t, err)

	return &testServer{
		t:       t,
		root:    root,
		handler: h.Routes(cfg.limits),
		mail:    mail,
		token:   session.Token,
	}
}

// do sends a request. body may be nil, a string or a value encoded as JSON.
func (s *testServer) do(method, path string, body any, authed bool) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(s.t, err)
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, r)
	req.RemoteAddr = "192.0.2.10:40000"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

// upload posts data as the multipart image field.
func (s *testServer) upload(path, filename string, data []byte) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(uploadField, filename)
	require.NoError(s.t, err)
	_, err = part.Write(data)
	require.NoError(s.t, err)
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token)
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

// envelope is the decoded success response.
type envelope[T any] struct {
	Data T     `json:"data"`
	Meta *Meta `json:"meta"`
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) middleware.APIError {
	t.Helper()
	var e middleware.APIError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &e), rr.Body.String())
	return e
}
