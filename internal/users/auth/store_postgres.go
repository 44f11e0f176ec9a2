// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/kkm-registry/internal/platform/apperr"
	"github.com/taibuivan/kkm-registry/internal/platform/authz"
	"github.com/taibuivan/kkm-registry/internal/platform/dberr"
	"github.com/taibuivan/kkm-registry/internal/platform/postgres"
)

// IdentityColumns select an [authz.Identity] from "logins l LEFT JOIN users u".
var IdentityColumns = []string{
	"l.user_id",
	"l.user_email",
	"COALESCE(u.user_name, '') AS user_name",
	"l.user_role",
	"l.user_last_login",
	"u.user_phone_no",
	"u.user_home_address",
	"u.user_membership_no",
}

// IdentityJoin is the profile join shared by every identity lookup.
var IdentityJoin = []postgres.Join{{Table: "users u", On: "u.user_id = l.user_id"}}

// PostgresAccountRepository implements [AccountRepository] over the query gateway.
type PostgresAccountRepository struct {
	gateway *postgres.Gateway
}

// NewAccountRepository creates a new PostgreSQL implementation of the AccountRepository.
func NewAccountRepository(gateway *postgres.Gateway) *PostgresAccountRepository {
	return &PostgresAccountRepository{gateway: gateway}
}

// FindByEmail looks up a login by its normalized email.
func (repository *PostgresAccountRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	rows, err := repository.gateway.Select(ctx, postgres.SelectQuery{
		Columns:   append(append([]string{}, IdentityColumns...), "l.user_password"),
		Table:     "logins l",
		LeftJoins: IdentityJoin,
		Where:     "l.user_email = ?",
		Params:    []any{email},
	})
	if err != nil {
		return nil, err
	}

	account, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Account])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.UserNotFound()
		}
		return nil, fmt.Errorf("postgres_account_repo_find_by_email_failed: %w", err)
	}

	return account, nil
}

// FindIdentity re-reads the login+profile join by primary key.
func (repository *PostgresAccountRepository) FindIdentity(ctx context.Context, userID string) (*authz.Identity, error) {
	return FindIdentity(ctx, repository.gateway.Executor, userID)
}

// FindIdentity is shared with the profile store so both read the same projection.
func FindIdentity(ctx context.Context, executor postgres.Executor, userID string) (*authz.Identity, error) {
	rows, err := executor.Select(ctx, postgres.SelectQuery{
		Columns:   IdentityColumns,
		Table:     "logins l",
		LeftJoins: IdentityJoin,
		Where:     "l.user_id = ?",
		Params:    []any{userID},
	})
	if err != nil {
		return nil, err
	}

	identity, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[authz.Identity])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.UserNotFound()
		}
		return nil, fmt.Errorf("postgres_account_repo_find_identity_failed: %w", err)
	}

	return identity, nil
}

/*
Create persists a new login and its profile in one transaction.

The email check runs inside the transaction; a concurrent registration that
slips past it still trips the unique index and is reported the same way.
*/
func (repository *PostgresAccountRepository) Create(ctx context.Context, account *Account) error {
	err := repository.gateway.InTx(ctx, func(tx postgres.Executor) error {

		// 1. Reject a taken email
		rows, err := tx.Select(ctx, postgres.SelectQuery{
			Columns: []string{"user_id"},
			Table:   tableLogins,
			Where:   "user_email = ?",
			Limit:   1,
			Params:  []any{account.Email},
		})
		if err != nil {
			return err
		}
		existing, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("postgres_account_repo_email_check_failed: %w", err)
		}
		if len(existing) > 0 {
			return apperr.UserAlreadyExists()
		}

		// 2. Credentials
		if err := postgres.Drain(tx.Insert(ctx, postgres.InsertQuery{
			Table:  tableLogins,
			Fields: []string{"user_id", "user_email", "user_password", "user_role", "user_last_login"},
			Params: []any{account.UserID, account.Email, account.PasswordHash, account.Role, account.LastLogin},
		})); err != nil {
			return err
		}

		// 3. Profile
		return postgres.Drain(tx.Insert(ctx, postgres.InsertQuery{
			Table:  tableUsers,
			Fields: []string{"user_id", "user_name"},
			Params: []any{account.UserID, account.Name},
		}))
	})

	switch {
	case err == nil:
		return nil
	case apperr.IsAppError(err):
		return err
	case dberr.IsUniqueViolation(err):
		return apperr.UserAlreadyExists().WithCause(err)
	default:
		return fmt.Errorf("postgres_account_repo_create_failed: %w", err)
	}
}

// TouchLastLogin stamps user_last_login.
func (repository *PostgresAccountRepository) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := repository.gateway.Update(ctx, postgres.UpdateQuery{
		Table:  tableLogins,
		Set:    []string{"user_last_login"},
		Where:  "user_id = ?",
		Params: []any{at, userID},
	})
	if err != nil {
		return fmt.Errorf("postgres_account_repo_touch_last_login_failed: %w", err)
	}
	return nil
}
