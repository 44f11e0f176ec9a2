// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing, Cookie
// Signing) from the domain logic. It acts as an Infrastructure service injected
// into the Application layer via small interfaces declared by the consumers.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Verification Outcomes

var (
	// ErrTokenExpired is returned when the current time is at or past the exp claim.
	ErrTokenExpired = errors.New("sec: token has expired")

	// ErrTokenInvalid covers every other verification failure: bad signature,
	// unexpected algorithm, wrong issuer, malformed payload or missing claims.
	ErrTokenInvalid = errors.New("sec: token is invalid")
)

// Claims represents the payload embedded inside both access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims

	UserID string   `json:"user_id"`
	Role   UserRole `json:"user_role"`
}

// TokenConfig carries the secrets and lifetimes resolved once at startup.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenService issues and verifies HS256 access and refresh tokens.
//
// Access and refresh tokens are signed with different secrets, so a token of one
// kind never verifies as the other.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

// NewTokenService validates cfg and returns a ready [TokenService].
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("sec: access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("sec: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("sec: token lifetimes must be positive (access=%s refresh=%s)", cfg.AccessTTL, cfg.RefreshTTL)
	}

	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}, nil
}

// WithClock returns a copy of the service reading time from now.
func (service *TokenService) WithClock(now func() time.Time) *TokenService {
	clone := *service
	clone.now = now
	return &clone
}

// AccessTTL is the lifetime of issued access tokens.
func (service *TokenService) AccessTTL() time.Duration { return service.accessTTL }

// RefreshTTL is the lifetime of issued refresh tokens.
func (service *TokenService) RefreshTTL() time.Duration { return service.refreshTTL }

// # Issuance

// IssueAccessToken creates a short-lived token for userID carrying role.
func (service *TokenService) IssueAccessToken(userID string, role UserRole) (string, error) {
	return service.issue(userID, role, service.accessSecret, service.accessTTL)
}

// IssueRefreshToken creates a long-lived token for userID carrying role.
func (service *TokenService) IssueRefreshToken(userID string, role UserRole) (string, error) {
	return service.issue(userID, role, service.refreshSecret, service.refreshTTL)
}

func (service *TokenService) issue(userID string, role UserRole, secret []byte, timeToLive time.Duration) (string, error) {
	currentTime := service.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID: userID,
		Role:   role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// # Verification

// VerifyAccessToken verifies tokenString against the access secret.
func (service *TokenService) VerifyAccessToken(tokenString string) (*Claims, error) {
	return service.Verify(tokenString, service.accessSecret)
}

// VerifyRefreshToken verifies tokenString against the refresh secret.
func (service *TokenService) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return service.Verify(tokenString, service.refreshSecret)
}

// Verify checks signature, issuer and expiry of tokenString using secret.
//
// The returned error is always [ErrTokenExpired] or [ErrTokenInvalid] (wrapped),
// so callers branch with [errors.Is].
func (service *TokenService) Verify(tokenString string, secret []byte) (*Claims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(service.now),
	}
	if service.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(service.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" || !claims.Role.Valid() {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
