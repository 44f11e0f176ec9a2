// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Registry administrators: list every user and membership, edit any profile.
	RoleAdmin UserRole = "admin"

	// Default role for registered members
	RoleUser UserRole = "user"
)

// Valid reports whether r is one of the roles stored in the logins relation.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// String implements [fmt.Stringer].
func (r UserRole) String() string {
	return string(r)
}
