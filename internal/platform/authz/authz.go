// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package authz holds the per-request authorized context and the pure access
control decisions route handlers consult before touching the store.

An [Authorized] value is built fresh by the authorization gate for every request,
owned by that request only, and never persisted.
*/
package authz

import (
	"time"

	"github.com/taibuivan/kkm-registry/internal/platform/sec"
)

// Identity is the public view of a login row joined with its profile row.
//
// On the fast path (valid access token) only UserID and Role are known; the
// remaining fields are filled when the gate re-fetched the row from the store.
type Identity struct {
	UserID       string       `json:"user_id" db:"user_id"`
	Email        string       `json:"user_email,omitempty" db:"user_email"`
	Name         string       `json:"user_name,omitempty" db:"user_name"`
	Role         sec.UserRole `json:"user_role" db:"user_role"`
	LastLogin    *time.Time   `json:"user_last_login,omitempty" db:"user_last_login"`
	PhoneNo      *string      `json:"user_phone_no,omitempty" db:"user_phone_no"`
	HomeAddress  *string      `json:"user_home_address,omitempty" db:"user_home_address"`
	MembershipNo *string      `json:"user_membership_no,omitempty" db:"user_membership_no"`
}

// Authorized is the resolved identity of the current request.
//
// AccessToken is only set when the gate minted a new access token from the
// refresh cookie; the client must pick it up from the response body.
type Authorized struct {
	AuthUserID  string    `json:"auth_user_id"`
	AuthUser    *Identity `json:"auth_user"`
	AccessToken string    `json:"access_token,omitempty"`
}

// Renewed reports whether a fresh access token was issued for this request.
func (authorized *Authorized) Renewed() bool {
	return authorized != nil && authorized.AccessToken != ""
}

// # Access Control Policy

// IsAdmin reports whether the authenticated user holds the admin role.
func IsAdmin(authorized *Authorized) bool {
	if authorized == nil || authorized.AuthUser == nil {
		return false
	}
	return authorized.AuthUser.Role == sec.RoleAdmin
}

// IsSelf reports whether the authenticated user is targetUserID.
func IsSelf(authorized *Authorized, targetUserID string) bool {
	if authorized == nil || authorized.AuthUser == nil || targetUserID == "" {
		return false
	}
	return authorized.AuthUser.UserID == targetUserID
}

// IsAdminOrSelf is the policy shared by the profile read and update endpoints.
func IsAdminOrSelf(authorized *Authorized, targetUserID string) bool {
	return IsAdmin(authorized) || IsSelf(authorized, targetUserID)
}
