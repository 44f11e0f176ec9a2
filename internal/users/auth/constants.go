// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// # Field Identifiers

// Request body fields of the credential endpoints.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPassword = "password"
)

// # Client Messages

const (
	msgMissingCredentials = "Missing Credentials"
	msgInvalidEmail       = "Invalid Email"
	msgLoggedOut          = "Logged out"
)

// # Storage Layout

const (
	tableLogins = "logins"
	tableUsers  = "users"
)
