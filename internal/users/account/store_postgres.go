// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/kkm-registry/internal/platform/authz"
	"github.com/taibuivan/kkm-registry/internal/platform/dberr"
	"github.com/taibuivan/kkm-registry/internal/platform/postgres"
	"github.com/taibuivan/kkm-registry/internal/users/auth"
)

// PostgresProfileRepository implements [ProfileRepository] over the query gateway.
type PostgresProfileRepository struct {
	gateway *postgres.Gateway
}

// NewProfileRepository creates a new PostgreSQL implementation of the ProfileRepository.
func NewProfileRepository(gateway *postgres.Gateway) *PostgresProfileRepository {
	return &PostgresProfileRepository{gateway: gateway}
}

// ListQuery builds the directory query for filter.
func ListQuery(filter ListFilter) postgres.SelectQuery {
	where := (&postgres.Predicate{}).
		AndIf(filter.Email != "", "l.user_email ILIKE ?", postgres.Contains(filter.Email)).
		AndIf(filter.Name != "", "u.user_name ILIKE ?", postgres.Contains(filter.Name)).
		AndIf(filter.Page.After != "", "l.user_email > ?", filter.Page.After)

	return postgres.SelectQuery{
		Columns:   auth.IdentityColumns,
		Table:     "logins l",
		LeftJoins: auth.IdentityJoin,
		Where:     where.SQL(),
		OrderBy:   "l.user_email ASC",
		Limit:     filter.Page.FetchLimit(),
		Params:    where.Params(),
	}
}

// List returns the fetched page of the directory.
func (repository *PostgresProfileRepository) List(ctx context.Context, filter ListFilter) ([]authz.Identity, error) {
	rows, err := repository.gateway.Select(ctx, ListQuery(filter))
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}

	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[authz.Identity])
	if err != nil {
		return nil, fmt.Errorf("postgres_profile_repo_list_failed: %w", err)
	}

	return users, nil
}

// FindByID reads one member.
func (repository *PostgresProfileRepository) FindByID(ctx context.Context, userID string) (*authz.Identity, error) {
	return auth.FindIdentity(ctx, repository.gateway.Executor, userID)
}

/*
Update writes the role to logins and the profile fields to users in one
transaction, then re-reads the joined row.
*/
func (repository *PostgresProfileRepository) Update(ctx context.Context, userID string, update ProfileUpdate) (*authz.Identity, error) {
	var updated *authz.Identity

	err := repository.gateway.InTx(ctx, func(tx postgres.Executor) error {
		if _, err := auth.FindIdentity(ctx, tx, userID); err != nil {
			return err
		}

		if update.Role != nil {
			if _, err := tx.Update(ctx, postgres.UpdateQuery{
				Table:  "logins",
				Set:    []string{FieldRole},
				Where:  "user_id = ?",
				Params: []any{*update.Role, userID},
			}); err != nil {
				return err
			}
		}

		if set, params := profileAssignments(update); len(set) > 0 {
			if _, err := tx.Update(ctx, postgres.UpdateQuery{
				Table:  "users",
				Set:    set,
				Where:  "user_id = ?",
				Params: append(params, userID),
			}); err != nil {
				return err
			}
		}

		identity, err := auth.FindIdentity(ctx, tx, userID)
		updated = identity
		return err
	})
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}

	return updated, nil
}

// profileAssignments lists the users columns to SET and their values, in matching order.
func profileAssignments(update ProfileUpdate) ([]string, []any) {
	var (
		set    []string
		params []any
	)

	add := func(column string, value *string) {
		if value != nil {
			set = append(set, column)
			params = append(params, *value)
		}
	}

	add(FieldName, update.Name)
	add(FieldPhoneNo, update.PhoneNo)
	add(FieldHomeAddress, update.HomeAddress)
	add(FieldMembershipNo, update.MembershipNo)

	return set, params
}
