// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles member profiles: the admin directory, single-profile
reads and profile updates.

# Security

Every endpoint sits behind the authorization gate. Listing is admin-only;
reading and updating a profile is allowed to admins and to the profile owner.
Only admins may change a role.
*/
package account

import (
	"context"

	"github.com/taibuivan/kkm-registry/internal/platform/authz"
	"github.com/taibuivan/kkm-registry/pkg/pagination"
)

// # Field Identifiers

const (
	FieldName         = "user_name"
	FieldPhoneNo      = "user_phone_no"
	FieldHomeAddress  = "user_home_address"
	FieldMembershipNo = "user_membership_no"
	FieldRole         = "user_role"

	// CursorLastEmail is the keyset cursor of the directory listing.
	CursorLastEmail = "last_email"
)

// # Domain Types

// ListFilter narrows the member directory. Email and Name match substrings,
// case-insensitively.
type ListFilter struct {
	Email string
	Name  string
	Page  pagination.Params
}

// ProfileUpdate carries the fields of a PATCH. Nil means "leave unchanged".
type ProfileUpdate struct {
	Name         *string `json:"user_name"`
	PhoneNo      *string `json:"user_phone_no"`
	HomeAddress  *string `json:"user_home_address"`
	MembershipNo *string `json:"user_membership_no"`
	Role         *string `json:"user_role"`
}

// Empty reports whether no recognised field was supplied.
func (update ProfileUpdate) Empty() bool {
	return update.Name == nil && update.PhoneNo == nil && update.HomeAddress == nil &&
		update.MembershipNo == nil && update.Role == nil
}

// # Repository Contracts

// ProfileRepository defines the persistence contract for member profiles.
type ProfileRepository interface {

	/*
		List returns up to filter.Page.FetchLimit() identities ordered by email,
		starting after filter.Page.After.
	*/
	List(ctx context.Context, filter ListFilter) ([]authz.Identity, error)

	/*
		FindByID retrieves the login+profile row of a member.

		Returns:
		  - error: apperr.UserNotFound when absent
	*/
	FindByID(ctx context.Context, userID string) (*authz.Identity, error)

	/*
		Update applies the non-nil fields and returns the row as stored.

		Returns:
		  - error: apperr.UserNotFound when absent
	*/
	Update(ctx context.Context, userID string, update ProfileUpdate) (*authz.Identity, error)
}
