// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kkm-registry/internal/platform/apperr"
	"github.com/taibuivan/kkm-registry/internal/platform/authz"
	"github.com/taibuivan/kkm-registry/internal/platform/sec"
	"github.com/taibuivan/kkm-registry/internal/users/auth"
)

// memoryAccounts is an in-memory AccountRepository.
type memoryAccounts struct {
	mu        sync.Mutex
	byID      map[string]*auth.Account
	findCalls int
	failWith  error
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{byID: make(map[string]*auth.Account)}
}

func (store *memoryAccounts) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.failWith != nil {
		return nil, store.failWith
	}
	for _, account := range store.byID {
		if account.Email == email {
			clone := *account
			return &clone, nil
		}
	}
	return nil, apperr.UserNotFound()
}

func (store *memoryAccounts) FindIdentity(_ context.Context, userID string) (*authz.Identity, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.findCalls++
	if store.failWith != nil {
		return nil, store.failWith
	}
	account, ok := store.byID[userID]
	if !ok {
		return nil, apperr.UserNotFound()
	}
	identity := account.Identity
	return &identity, nil
}

func (store *memoryAccounts) Create(_ context.Context, account *auth.Account) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, existing := range store.byID {
		if existing.Email == account.Email {
			return apperr.UserAlreadyExists()
		}
	}
	clone := *account
	store.byID[account.UserID] = &clone
	return nil
}

func (store *memoryAccounts) TouchLastLogin(_ context.Context, userID string, at time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if account, ok := store.byID[userID]; ok {
		account.LastLogin = &at
	}
	return nil
}

func (store *memoryAccounts) seed(t *testing.T, userID, email, password string, role sec.UserRole) {
	t.Helper()
	hash, err := sec.HashPassword(password)
	require.NoError(t, err)

	store.mu.Lock()
	defer store.mu.Unlock()
	store.byID[userID] = &auth.Account{
		Identity:     authz.Identity{UserID: userID, Email: email, Name: "Seeded", Role: role},
		PasswordHash: hash,
	}
}

func (store *memoryAccounts) setRole(userID string, role sec.UserRole) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.byID[userID].Role = role
}

func (store *memoryAccounts) remove(userID string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.byID, userID)
}

func (store *memoryAccounts) byEmail(email string) *auth.Account {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, account := range store.byID {
		if account.Email == email {
			clone := *account
			return &clone
		}
	}
	return nil
}

// memoryThrottle is an in-memory LoginThrottle without expiry.
type memoryThrottle struct {
	mu          sync.Mutex
	maxAttempts int
	failures    map[string]int
}

func newMemoryThrottle(maxAttempts int) *memoryThrottle {
	return &memoryThrottle{maxAttempts: maxAttempts, failures: make(map[string]int)}
}

func (throttle *memoryThrottle) Locked(_ context.Context, email string) (time.Duration, error) {
	throttle.mu.Lock()
	defer throttle.mu.Unlock()
	if throttle.failures[email] >= throttle.maxAttempts {
		return 90 * time.Second, nil
	}
	return 0, nil
}

func (throttle *memoryThrottle) RecordFailure(_ context.Context, email string) error {
	throttle.mu.Lock()
	defer throttle.mu.Unlock()
	throttle.failures[email]++
	return nil
}

func (throttle *memoryThrottle) Reset(_ context.Context, email string) error {
	throttle.mu.Lock()
	defer throttle.mu.Unlock()
	delete(throttle.failures, email)
	return nil
}

// # Shared Fixtures

var testEpoch = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type testClock struct {
	mu      sync.Mutex
	current time.Time
}

func (clock *testClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.current
}

func (clock *testClock) Advance(d time.Duration) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.current = clock.current.Add(d)
}

func newTokens(t *testing.T, clock *testClock) *sec.TokenService {
	t.Helper()
	tokens, err := sec.NewTokenService(sec.TokenConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    14 * 24 * time.Hour,
		Issuer:        "kkm-registry",
	})
	require.NoError(t, err)
	return tokens.WithClock(clock.Now)
}

func newCookies(t *testing.T) *sec.CookieSigner {
	t.Helper()
	cookies, err := sec.NewCookieSigner("test-cookie-secret", 14*24*time.Hour, false)
	require.NoError(t, err)
	return cookies
}
