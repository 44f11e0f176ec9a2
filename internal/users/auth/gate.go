// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/taibuivan/kkm-registry/internal/platform/apperr"
	"github.com/taibuivan/kkm-registry/internal/platform/authz"
	"github.com/taibuivan/kkm-registry/internal/platform/constants"
	"github.com/taibuivan/kkm-registry/internal/platform/sec"
)

// IdentityFinder re-reads the current identity during a refresh.
type IdentityFinder interface {
	FindIdentity(ctx context.Context, userID string) (*authz.Identity, error)
}

// errNoBearer marks a request without an Authorization header. The gate
// handles it like an expired access token.
var errNoBearer = errors.New("auth: no bearer token")

// Gate resolves the [authz.Authorized] context of a request.
//
// # Flow
//  1. No Authorization header: go straight to the refresh path.
//  2. Malformed header: 401 Not authenticated.
//  3. Valid access token: identity from the claims, no store access.
//  4. Expired access token: refresh path.
//  5. Any other access token failure: 500.
//
// The refresh path reads the signed cookie (404 when absent or tampered),
// verifies the refresh token (401 when expired or invalid), re-fetches the
// account (404 when gone) and mints a new access token from the current role.
type Gate struct {
	tokens     *sec.TokenService
	cookies    *sec.CookieSigner
	identities IdentityFinder
}

// NewGate wires the gate's collaborators.
func NewGate(tokens *sec.TokenService, cookies *sec.CookieSigner, identities IdentityFinder) *Gate {
	return &Gate{tokens: tokens, cookies: cookies, identities: identities}
}

// Resolve implements middleware.Resolver.
func (gate *Gate) Resolve(request *http.Request) (*authz.Authorized, error) {
	token, err := bearerToken(request)
	if errors.Is(err, errNoBearer) {
		return gate.refresh(request)
	}
	if err != nil {
		return nil, err
	}

	claims, err := gate.tokens.VerifyAccessToken(token)
	switch {
	case err == nil:
		return &authz.Authorized{
			AuthUserID: claims.UserID,
			AuthUser:   &authz.Identity{UserID: claims.UserID, Role: claims.Role},
		}, nil
	case errors.Is(err, sec.ErrTokenExpired):
		return gate.refresh(request)
	default:
		return nil, apperr.Internal(err)
	}
}

func (gate *Gate) refresh(request *http.Request) (*authz.Authorized, error) {
	refreshToken, err := gate.cookies.RefreshToken(request)
	if err != nil {
		return nil, apperr.RefreshTokenNotFound()
	}

	claims, err := gate.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, apperr.RefreshExpired().WithCause(err)
	}

	// The claims may be stale; the store has the current role.
	identity, err := gate.identities.FindIdentity(request.Context(), claims.UserID)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeUserNotFound) {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}

	accessToken, err := gate.tokens.IssueAccessToken(identity.UserID, identity.Role)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &authz.Authorized{
		AuthUserID:  identity.UserID,
		AuthUser:    identity,
		AccessToken: accessToken,
	}, nil
}

// bearerToken extracts the token of "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func bearerToken(request *http.Request) (string, error) {
	header := request.Header.Get(constants.HeaderAuthorization)
	if header == "" {
		return "", errNoBearer
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], constants.BearerScheme) {
		return "", apperr.NotAuthenticated()
	}

	return parts[1], nil
}
