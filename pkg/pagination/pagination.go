// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination provides shared types and helpers for API list endpoints.
//
// # Overview
//
// Registry lists use keyset pagination: the client passes the sort key of the
// last row it saw (for example "last_email") and a limit. The store fetches one
// row more than the limit so the handler can report "hasMore" without a COUNT.
package pagination

import (
	"net/http"
	"strconv"

	"github.com/taibuivan/kkm-registry/internal/platform/apperr"
)

const (
	// DefaultLimit is the number of items per page if not specified.
	DefaultLimit = 25
	// MaxLimit is the upper bound for items per page to prevent system abuse.
	MaxLimit = 100
)

// Params holds the parsed cursor and limit from a request's query string.
type Params struct {
	// After is the sort key of the last row of the previous page. Empty means first page.
	After string
	Limit int
}

// FetchLimit returns the number of rows to fetch: one past the page to detect more data.
func (p Params) FetchLimit() int {
	return p.Limit + 1
}

// FromRequest parses the cursor parameter named cursorKey and "limit".
//
// # Clamping
//
// A missing limit falls back to [DefaultLimit]; values above [MaxLimit] are
// clamped. Non-numeric or non-positive limits are rejected with a 400.
func FromRequest(r *http.Request, cursorKey string) (Params, error) {
	params := Params{After: r.URL.Query().Get(cursorKey), Limit: DefaultLimit}

	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return params, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return Params{}, apperr.BadRequest("Invalid limit", apperr.FieldError{Field: "limit", Message: "Must be a positive integer"})
	}

	params.Limit = min(n, MaxLimit)
	return params, nil
}

// Trim cuts an over-fetched result set down to limit and reports whether more rows exist.
func Trim[T any](rows []T, limit int) ([]T, bool) {
	if len(rows) > limit {
		return rows[:limit], true
	}
	return rows, false
}
