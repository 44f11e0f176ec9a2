// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements credential management and the authorization gate.

It covers registration, login, logout and the per-request resolution of the
caller's identity from a bearer access token or, once that expires, from the
signed refresh-token cookie.

# Architecture

  - Gate: resolves an [authz.Authorized] context for protected routes.
  - Service: register/login use cases, login throttling.
  - Repository: logins joined with users profiles (Postgres), attempt counters (Redis).
*/
package auth

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/taibuivan/kkm-registry/internal/platform/authz"
)

// # Domain Entities

// Account is a login row joined with its profile, including the password hash.
// It never leaves the service layer; handlers only see [authz.Identity].
type Account struct {
	authz.Identity
	PasswordHash string `json:"-" db:"user_password"`
}

// Session is the outcome of a successful register or login.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *authz.Identity
}

// NormalizeEmail trims and lowercases an address so lookups and the unique
// index agree regardless of how the user typed it.
//
// Lowercasing is rune for rune, so "straße@x.com" keeps its eszett.
func NormalizeEmail(email string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(email))
}
