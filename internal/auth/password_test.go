// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("changeme")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$"))

	ok, err := CheckPassword("changeme", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword("wrongpassword", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := HashPassword("changeme")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salt must differ between hashes")
}

func TestCheckPasswordForeignParameters(t *testing.T) {
	// Hash made with m=65536,t=1,p=4 for "changeme".
	hash := "$argon2id$v=19$m=65536,t=1,p=4$mucMvOaS6lZ2LWNS1OEFKw$UYEWv8cvCOO6l2zGeqv3JPVe1nyy0x9GXBfYEuDM544"

	ok, err := CheckPassword("changeme", hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, NeedsRehash(hash))
}

func TestCheckPasswordInvalidHash(t *testing.T) {
	tests := []string{
		"",
		"plaintext",
		"$2a$10$abcdefghijklmnopqrstuv",
		"$argon2i$v=19$m=19456,t=2,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=2,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=19456,t=2,p=1$!!!$a2V5",
		"$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$",
	}
	for _, hash := range tests {
		t.Run(hash, func(t *testing.T) {
			_, err := CheckPassword("x", hash)
			assert.ErrorIs(t, err, ErrInvalidHash)
			assert.True(t, NeedsRehash(hash))
		})
	}
}

func TestNeedsRehashCurrent(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	assert.False(t, NeedsRehash(hash))
}
