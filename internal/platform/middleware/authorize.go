// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/taibuivan/kkm-registry/internal/platform/authz"
	"github.com/taibuivan/kkm-registry/internal/platform/ctxutil"
	"github.com/taibuivan/kkm-registry/internal/platform/respond"
)

// Resolver decides who is calling. The users/auth gate implements it.
type Resolver interface {
	Resolve(request *http.Request) (*authz.Authorized, error)
}

// Authorize runs the authorization gate in front of protected routes.
//
// # Flow
//  1. Ask the [Resolver] for the caller's [authz.Authorized] context.
//  2. On failure, answer with the resolver's error and stop.
//  3. On success, store the context for handlers and tag the access log.
func Authorize(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authorized, err := resolver.Resolve(request)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			logger := ctxutil.GetLogger(request.Context()).With(slog.String("user_id", authorized.AuthUserID))
			if authorized.Renewed() {
				logger.InfoContext(request.Context(), "access_token_renewed")
			}

			if tagger, ok := writer.(userTagger); ok {
				tagger.tagUser(authorized.AuthUserID)
			}

			ctx := ctxutil.WithAuthorized(request.Context(), authorized)
			ctx = ctxutil.WithLogger(ctx, logger)

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}
