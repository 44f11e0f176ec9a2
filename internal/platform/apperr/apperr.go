// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for the registry.

It provides a rich error type that bridges the gap between low-level Domain/Storage
errors and high-level HTTP responses.

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Taxonomy: One constructor per anticipated failure of the auth and registry flows.
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes.

Every error that leaves the service layer should be an [AppError]. Anything else is
rendered as an opaque 500.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// # Error Codes

const (
	CodeNotAuthenticated     = "NOT_AUTHENTICATED"
	CodeRefreshTokenNotFound = "REFRESH_TOKEN_NOT_FOUND"
	CodeRefreshExpired       = "REFRESH_EXPIRED"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeUserAlreadyExists    = "USER_ALREADY_EXISTS"
	CodeValidationFailed     = "VALIDATION_ERROR"
	CodeNotAuthorized        = "NOT_AUTHORIZED"
	CodeNothingToUpdate      = "NOTHING_TO_UPDATE"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeRateLimited          = "RATE_LIMITED"
	CodeServerError          = "SERVER_ERROR"
)

// AppError is the canonical error type for the registry API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "CONFLICT").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"message"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause returns a copy of e carrying cause for server-side logging.
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func newError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Message: msg, HTTPStatus: status}
}

// # Authentication (401 / 404)

// NotAuthenticated is returned for a malformed Authorization header.
func NotAuthenticated() *AppError {
	return newError(CodeNotAuthenticated, http.StatusUnauthorized, "Not authenticated")
}

// RefreshTokenNotFound is returned when the access token is unusable and no
// (valid-signature) refresh cookie accompanies the request.
func RefreshTokenNotFound() *AppError {
	return newError(CodeRefreshTokenNotFound, http.StatusNotFound, "Token not found")
}

// RefreshExpired is terminal: the caller must log in again.
func RefreshExpired() *AppError {
	return newError(CodeRefreshExpired, http.StatusUnauthorized, "Token has expired")
}

// UserNotFound is returned when the identity behind a token no longer exists.
func UserNotFound() *AppError {
	return newError(CodeUserNotFound, http.StatusNotFound, "Cannot find user")
}

// InvalidCredentials deliberately hides whether the email or the password was wrong.
func InvalidCredentials() *AppError {
	return newError(CodeInvalidCredentials, http.StatusUnauthorized, "Email or Password is incorrect")
}

// UserAlreadyExists is returned by registration for a taken email.
func UserAlreadyExists() *AppError {
	return newError(CodeUserAlreadyExists, http.StatusUnauthorized, "User already exists")
}

// ValidationFailed creates a 401 [AppError] for missing or malformed credentials,
// matching the status the registry clients already handle.
func ValidationFailed(msg string, details ...FieldError) *AppError {
	appErr := newError(CodeValidationFailed, http.StatusUnauthorized, msg)
	appErr.Details = details
	return appErr
}

// # Client Errors (4xx)

// BadRequest creates a 400 [AppError] for undecodable input.
func BadRequest(msg string, details ...FieldError) *AppError {
	appErr := newError(CodeValidationFailed, http.StatusBadRequest, msg)
	appErr.Details = details
	return appErr
}

// NotAuthorized creates a 403 [AppError] for role or ownership policy failures.
func NotAuthorized() *AppError {
	return newError(CodeNotAuthorized, http.StatusForbidden, "Not authorized")
}

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Membership") // Returns "Membership not found"
func NotFound(resource string) *AppError {
	return newError(CodeNotFound, http.StatusNotFound, resource+" not found")
}

// NothingToUpdate creates a 406 [AppError] for PATCH bodies with no applicable field.
func NothingToUpdate() *AppError {
	return newError(CodeNothingToUpdate, http.StatusNotAcceptable, "Nothing to update")
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return newError(CodeConflict, http.StatusConflict, msg)
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return newError(CodeRateLimited, http.StatusTooManyRequests,
		fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds))
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	appErr := newError(CodeServerError, http.StatusInternalServerError, "Server Error")
	appErr.Cause = cause
	return appErr
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err carries an [*AppError] with the given code.
func HasCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
