// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/taibuivan/kkm-registry/internal/platform/authz"
)

// # Credential Data Access

// AccountRepository defines the data access contract for logins and their profiles.
type AccountRepository interface {

	/*
		FindByEmail returns the account registered under a normalized email.

		Returns:
		  - *Account: Login row joined with profile, including the hash
		  - error: apperr.UserNotFound when no login matches
	*/
	FindByEmail(ctx context.Context, email string) (*Account, error)

	/*
		FindIdentity returns the current login+profile row for userID.

		Returns:
		  - *authz.Identity: Public identity with the CURRENT role
		  - error: apperr.UserNotFound when the account no longer exists
	*/
	FindIdentity(ctx context.Context, userID string) (*authz.Identity, error)

	/*
		Create inserts the login and the profile rows atomically.

		Returns:
		  - error: apperr.UserAlreadyExists when the email is taken
	*/
	Create(ctx context.Context, account *Account) error

	// TouchLastLogin records a successful login.
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}

// # Volatile Data Access

// LoginThrottle counts failed login attempts per email.
type LoginThrottle interface {

	// Locked returns the remaining lockout for email, or zero when attempts are allowed.
	Locked(ctx context.Context, email string) (time.Duration, error)

	// RecordFailure counts one failed attempt; the first one opens the window.
	RecordFailure(ctx context.Context, email string) error

	// Reset forgets all failures for email.
	Reset(ctx context.Context, email string) error
}
