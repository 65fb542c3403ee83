// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/ofolio/internal/model"
)

// ErrInvalidCredentials is returned for a wrong username or password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Session is the outcome of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Actor     model.Actor
}

// Authenticator checks the single admin credential and issues tokens.
type Authenticator struct {
	username     string
	passwordHash string
	actor        model.Actor
	tokens       *TokenIssuer
}

// NewAuthenticator creates an Authenticator for the admin account.
func NewAuthenticator(username, passwordHash string, tokens *TokenIssuer) *Authenticator {
	return &Authenticator{
		username:     username,
		passwordHash: passwordHash,
		actor:        AdminActor(username),
		tokens:       tokens,
	}
}

// AdminActor returns the actor for the admin account. The ID is stable
// for a given username.
func AdminActor(username string) model.Actor {
	return model.Actor{
		ID:       uuid.NewSHA1(uuid.NameSpaceURL, []byte("ofolio:admin:"+username)).String(),
		Username: username,
	}
}

// Login verifies the credentials and returns a signed session token.
// The password is always checked so a wrong username costs the same time.
func (a *Authenticator) Login(username, password string) (*Session, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK, err := CheckPassword(password, a.passwordHash)
	if err != nil {
		return nil, err
	}
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}

	token, expires, err := a.tokens.Issue(a.actor)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expires, Actor: a.actor}, nil
}

// Verify returns the admin actor for a valid token. Tokens for any other
// account are rejected.
func (a *Authenticator) Verify(token string) (model.Actor, error) {
	actor, err := a.tokens.Verify(token)
	if err != nil {
		return model.Actor{}, err
	}
	if actor != a.actor {
		return model.Actor{}, ErrInvalidToken
	}
	return actor, nil
}
