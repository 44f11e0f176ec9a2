// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/taibuivan/kkm-registry/internal/platform/apperr"
	"github.com/taibuivan/kkm-registry/internal/platform/authz"
	"github.com/taibuivan/kkm-registry/internal/platform/ctxutil"
	"github.com/taibuivan/kkm-registry/internal/platform/sec"
	"github.com/taibuivan/kkm-registry/internal/platform/validate"
	"github.com/taibuivan/kkm-registry/pkg/pointer"
	"github.com/taibuivan/kkm-registry/pkg/uuid"
)

// Service implements the credential lifecycle use cases.
type Service struct {
	accounts AccountRepository
	throttle LoginThrottle
	tokens   *sec.TokenService
	now      func() time.Time

	// decoyHash is compared against when the email is unknown so that both
	// login failures cost one bcrypt comparison.
	decoyHash string
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(accounts AccountRepository, throttle LoginThrottle, tokens *sec.TokenService) (*Service, error) {
	decoyHash, err := sec.HashPassword("decoy-password-never-matches")
	if err != nil {
		return nil, fmt.Errorf("auth_service_decoy_hash_failed: %w", err)
	}

	if throttle == nil {
		throttle = NoopLoginThrottle{}
	}

	return &Service{
		accounts:  accounts,
		throttle:  throttle,
		tokens:    tokens,
		now:       time.Now,
		decoyHash: decoyHash,
	}, nil
}

// WithClock overrides the wall clock used for last-login stamps.
func (service *Service) WithClock(now func() time.Time) *Service {
	clone := *service
	clone.now = now
	return &clone
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

/*
Register validates, hashes, and persists a brand new account, then signs the
member in.

Returns:
  - *Session: Tokens and the new identity (role "user")
  - error: ValidationFailed, UserAlreadyExists or storage errors
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	if err := checkCredentials(input.Email, input.Password, &input.Name); err != nil {
		return nil, err
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	now := service.now().UTC()
	account := &Account{
		Identity: authz.Identity{
			UserID:    uuid.New(),
			Email:     NormalizeEmail(input.Email),
			Name:      input.Name,
			Role:      sec.RoleUser,
			LastLogin: pointer.To(now),
		},
		PasswordHash: hashedPassword,
	}

	if err := service.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	identity := account.Identity
	return service.issueSession(&identity)
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

/*
Login verifies credentials and issues tokens carrying the current role.

Unknown email and wrong password produce the same error.

Returns:
  - *Session: Tokens and the identity with the refreshed last-login stamp
  - error: ValidationFailed, InvalidCredentials, RateLimited or storage errors
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	if err := checkCredentials(input.Email, input.Password, nil); err != nil {
		return nil, err
	}

	email := NormalizeEmail(input.Email)
	logger := ctxutil.GetLogger(ctx)

	// 1. Throttle (fails open when Redis is unreachable)
	lockout, err := service.throttle.Locked(ctx, email)
	if err != nil {
		logger.WarnContext(ctx, "login_throttle_unavailable", slog.Any("error", err))
	}
	if lockout > 0 {
		return nil, apperr.RateLimited(int(math.Ceil(lockout.Seconds())))
	}

	// 2. Credentials
	account, err := service.accounts.FindByEmail(ctx, email)
	if err != nil && !apperr.HasCode(err, apperr.CodeUserNotFound) {
		return nil, err
	}

	if account == nil {
		sec.CheckPasswordHash(input.Password, service.decoyHash)
		return nil, service.rejectLogin(ctx, email)
	}

	if !sec.CheckPasswordHash(input.Password, account.PasswordHash) {
		return nil, service.rejectLogin(ctx, email)
	}

	if err := service.throttle.Reset(ctx, email); err != nil {
		logger.WarnContext(ctx, "login_throttle_reset_failed", slog.Any("error", err))
	}

	// 3. Stamp the login
	now := service.now().UTC()
	if err := service.accounts.TouchLastLogin(ctx, account.UserID, now); err != nil {
		return nil, err
	}

	identity := account.Identity
	identity.LastLogin = pointer.To(now)
	return service.issueSession(&identity)
}

func (service *Service) rejectLogin(ctx context.Context, email string) error {
	if err := service.throttle.RecordFailure(ctx, email); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "login_throttle_record_failed", slog.Any("error", err))
	}
	return apperr.InvalidCredentials()
}

func (service *Service) issueSession(identity *authz.Identity) (*Session, error) {
	accessToken, err := service.tokens.IssueAccessToken(identity.UserID, identity.Role)
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	refreshToken, err := service.tokens.IssueRefreshToken(identity.UserID, identity.Role)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	return &Session{AccessToken: accessToken, RefreshToken: refreshToken, User: identity}, nil
}

// checkCredentials validates the credential body. Register passes name; login passes nil.
func checkCredentials(email, password string, name *string) error {
	validator := &validate.Validator{}
	validator.Required(FieldEmail, email).Required(FieldPassword, password)
	if name != nil {
		validator.Required(FieldName, *name)
	}

	if validator.HasErrors() {
		return apperr.ValidationFailed(msgMissingCredentials, validator.Errors()...)
	}

	emailCheck := &validate.Validator{}
	if emailCheck.Email(FieldEmail, strings.TrimSpace(email)).HasErrors() {
		return apperr.ValidationFailed(msgInvalidEmail, emailCheck.Errors()...)
	}

	return nil
}
