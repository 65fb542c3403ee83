// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	return NewAuthenticator("admin", hash, NewTokenIssuer(testSecret, time.Hour))
}

func TestLogin(t *testing.T) {
	a := newTestAuthenticator(t)

	s, err := a.Login("admin", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, "admin", s.Actor.Username)
	assert.Equal(t, AdminActor("admin"), s.Actor)

	actor, err := a.Verify(s.Token)
	require.NoError(t, err)
	assert.Equal(t, s.Actor, actor)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	a := newTestAuthenticator(t)

	tests := []struct{ user, pass string }{
		{"admin", "wrong"},
		{"root", "s3cret-pass"},
		{"", ""},
	}
	for _, tt := range tests {
		_, err := a.Login(tt.user, tt.pass)
		assert.ErrorIs(t, err, ErrInvalidCredentials, "%s/%s", tt.user, tt.pass)
	}
}

func TestVerifyRejectsOtherAccounts(t *testing.T) {
	a := newTestAuthenticator(t)
	token, _, err := a.tokens.Issue(AdminActor("someone-else"))
	require.NoError(t, err)

	_, err = a.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAdminActorStable(t *testing.T) {
	assert.Equal(t, AdminActor("admin"), AdminActor("admin"))
	assert.NotEqual(t, AdminActor("admin").ID, AdminActor("editor").ID)
}
