// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kkm-registry/internal/platform/authz"
	"github.com/taibuivan/kkm-registry/internal/platform/ctxutil"
	"github.com/taibuivan/kkm-registry/internal/platform/sec"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "test-request-id"

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 1. Initially should return the default logger
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_Authorized verifies that the authorized identity can be stored in context.
*/
func TestContext_Authorized(t *testing.T) {
	ctx := context.Background()
	authorized := &authz.Authorized{
		AuthUserID: "user-123",
		AuthUser:   &authz.Identity{UserID: "user-123", Role: sec.RoleAdmin},
	}

	// 1. Initially should be nil
	assert.Nil(t, ctxutil.GetAuthorized(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithAuthorized(ctx, authorized)
	retrieved := ctxutil.GetAuthorized(ctx)

	require.NotNil(t, retrieved)
	assert.Equal(t, "user-123", retrieved.AuthUserID)
	assert.Equal(t, sec.RoleAdmin, retrieved.AuthUser.Role)
}
