// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/taibuivan/kkm-registry/internal/platform/constants"
)

// ErrCookieNotFound is returned when the refresh cookie is missing or its
// signature does not verify.
var ErrCookieNotFound = errors.New("sec: refresh cookie not found")

// CookieSigner writes and reads the tamper-evident refresh token cookie.
//
// Values are signed (HMAC-SHA256) but not encrypted.
type CookieSigner struct {
	codec  *securecookie.SecureCookie
	maxAge time.Duration
	secure bool
}

// NewCookieSigner builds a signer from the cookie secret. maxAge bounds both the
// browser lifetime and the accepted signature age; secure sets the Secure flag.
func NewCookieSigner(secret string, maxAge time.Duration, secure bool) (*CookieSigner, error) {
	if secret == "" {
		return nil, errors.New("sec: cookie secret is required")
	}

	// A nil block key disables encryption: the value stays readable, only signed.
	codec := securecookie.New([]byte(secret), nil)
	codec.MaxAge(int(maxAge.Seconds()))

	return &CookieSigner{codec: codec, maxAge: maxAge, secure: secure}, nil
}

// SetRefreshToken attaches the signed refresh token cookie to the response.
func (signer *CookieSigner) SetRefreshToken(writer http.ResponseWriter, token string) error {
	encoded, err := signer.codec.Encode(constants.RefreshTokenCookieName, token)
	if err != nil {
		return fmt.Errorf("sec: failed to sign refresh cookie: %w", err)
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    encoded,
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   int(signer.maxAge.Seconds()),
		Secure:   signer.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// RefreshToken returns the verified refresh token carried by the request.
func (signer *CookieSigner) RefreshToken(request *http.Request) (string, error) {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrCookieNotFound
	}

	var token string
	if err := signer.codec.Decode(constants.RefreshTokenCookieName, cookie.Value, &token); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCookieNotFound, err)
	}

	if token == "" {
		return "", ErrCookieNotFound
	}
	return token, nil
}

// ClearRefreshToken instructs the client to drop the refresh cookie.
func (signer *CookieSigner) ClearRefreshToken(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		Secure:   signer.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
