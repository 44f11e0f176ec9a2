// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kkm-registry/internal/api"
	"github.com/taibuivan/kkm-registry/internal/membership"
	"github.com/taibuivan/kkm-registry/internal/platform/apperr"
	"github.com/taibuivan/kkm-registry/internal/platform/config"
	"github.com/taibuivan/kkm-registry/internal/platform/sec"
	"github.com/taibuivan/kkm-registry/internal/users/account"
	"github.com/taibuivan/kkm-registry/internal/users/auth"
)

// newTestServer wires the real router with stores that are never reached.
func newTestServer(t *testing.T, deps api.HealthDependencies) (http.Handler, *sec.TokenService) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := sec.NewTokenService(sec.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    14 * 24 * time.Hour,
		Issuer:        "kkm-registry",
	})
	require.NoError(t, err)

	cookies, err := sec.NewCookieSigner("cookie-secret", 14*24*time.Hour, false)
	require.NoError(t, err)

	authService, err := auth.NewService(nil, nil, tokens)
	require.NoError(t, err)

	liveness, readiness := api.NewHealthHandlers(deps, logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	server := api.NewServer(ctx, &config.Config{ServerPort: "0", AllowedOrigin: "http://localhost:4000"}, logger, nil,
		auth.NewGate(tokens, cookies, nil),
		api.Handlers{
			Liveness:   liveness,
			Readiness:  readiness,
			Auth:       auth.NewHandler(authService, cookies),
			Account:    account.NewHandler(account.NewService(nil)),
			Membership: membership.NewHandler(membership.NewService(nil)),
		})

	return server.Handler(), tokens
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

/*
TestHealth covers liveness and a degraded readiness answer.
*/
func TestHealth(t *testing.T) {
	handler, _ := newTestServer(t, api.HealthDependencies{
		CheckDatabase: func(context.Context) error { return nil },
		CheckCache:    func(context.Context) error { return errors.New("connection refused") },
	})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Equal(t, "degraded", decode(t, recorder)["data"].(map[string]any)["status"])
}

/*
TestReady_WithoutCache treats an absent Redis as ready.
*/
func TestReady_WithoutCache(t *testing.T) {
	handler, _ := newTestServer(t, api.HealthDependencies{
		CheckDatabase: func(context.Context) error { return nil },
	})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestGatedRoutes verifies the gate sits in front of profiles and memberships.
*/
func TestGatedRoutes(t *testing.T) {
	handler, tokens := newTestServer(t, api.HealthDependencies{})

	memberToken, err := tokens.IssueAccessToken("0190a6c4-0000-7000-8000-00000000000b", sec.RoleUser)
	require.NoError(t, err)

	tests := []struct {
		name          string
		method        string
		target        string
		authorization string
		wantStatus    int
		wantCode      string
	}{
		{"users_anonymous", http.MethodGet, "/api/v1/users", "", http.StatusNotFound, apperr.CodeRefreshTokenNotFound},
		{"memberships_anonymous", http.MethodPost, "/api/v1/memberships", "", http.StatusNotFound, apperr.CodeRefreshTokenNotFound},
		{"rehydrate_anonymous", http.MethodGet, "/api/v1/auth/rehydrate", "", http.StatusNotFound, apperr.CodeRefreshTokenNotFound},
		{"malformed_header", http.MethodGet, "/api/v1/users", "Token abc", http.StatusUnauthorized, apperr.CodeNotAuthenticated},
		{"member_lists_users", http.MethodGet, "/api/v1/users", "Bearer " + memberToken, http.StatusForbidden, apperr.CodeNotAuthorized},
		{"member_reads_other", http.MethodGet, "/api/v1/users/0190a6c4-0000-7000-8000-00000000000c", "Bearer " + memberToken, http.StatusForbidden, apperr.CodeNotAuthorized},
		{"member_lists_memberships", http.MethodGet, "/api/v1/memberships", "Bearer " + memberToken, http.StatusForbidden, apperr.CodeNotAuthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.authorization != "" {
				request.Header.Set("Authorization", tt.authorization)
			}

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, tt.wantCode, decode(t, recorder)["code"])
		})
	}
}

/*
TestLogout_NotGated clears the cookie without credentials.
*/
func TestLogout_NotGated(t *testing.T) {
	handler, _ := newTestServer(t, api.HealthDependencies{})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodDelete, "/api/v1/auth/logout", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "Logged out", decode(t, recorder)["message"])
}
