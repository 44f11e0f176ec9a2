// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/kkm-registry/internal/platform/apperr"
	"github.com/taibuivan/kkm-registry/internal/platform/authz"
	"github.com/taibuivan/kkm-registry/internal/platform/ctxutil"
	"github.com/taibuivan/kkm-registry/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

An empty body decodes into the zero value so that handlers can report the
missing fields through the validator instead of a generic JSON error.
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if request.Body == nil || request.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Authorized returns the gate's authorized context, or nil on ungated routes.
*/
func Authorized(request *http.Request) *authz.Authorized {
	return ctxutil.GetAuthorized(request.Context())
}

/*
RequiredAuthorized ensures the request passed the authorization gate.

Returns:
  - *authz.Authorized: The authorized context of the caller
  - error: apperr.NotAuthenticated if the gate did not run
*/
func RequiredAuthorized(request *http.Request) (*authz.Authorized, error) {

	authorized := ctxutil.GetAuthorized(request.Context())

	if authorized == nil || authorized.AuthUser == nil {
		return nil, apperr.NotAuthenticated()
	}

	return authorized, nil
}
