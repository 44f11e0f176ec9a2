// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/kkm-registry/internal/platform/apperr"
	"github.com/taibuivan/kkm-registry/internal/platform/dberr"
	"github.com/taibuivan/kkm-registry/internal/platform/postgres"
)

const tableMemberships = "memberships"

// PostgresRepository implements [Repository] over the query gateway.
type PostgresRepository struct {
	gateway *postgres.Gateway
}

// NewRepository creates a new PostgreSQL implementation of the Repository.
func NewRepository(gateway *postgres.Gateway) *PostgresRepository {
	return &PostgresRepository{gateway: gateway}
}

/*
Create inserts the request after checking, in the same transaction, that the
member has no pending one. The partial unique index on pending requests backs
the check for concurrent callers.
*/
func (repository *PostgresRepository) Create(ctx context.Context, membership *Membership) error {
	err := repository.gateway.InTx(ctx, func(tx postgres.Executor) error {

		// 1. One open request per member
		rows, err := tx.Select(ctx, postgres.SelectQuery{
			Columns: []string{"membership_id"},
			Table:   tableMemberships,
			Where:   "user_id = ? AND status = ?",
			Limit:   1,
			Params:  []any{membership.UserID, StatusRequest},
		})
		if err != nil {
			return err
		}
		pending, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("postgres_membership_repo_pending_check_failed: %w", err)
		}
		if len(pending) > 0 {
			return apperr.Conflict(msgAlreadyPending)
		}

		// 2. Insert, letting the database stamp requested_on
		rows, err = tx.Insert(ctx, postgres.InsertQuery{
			Table:     tableMemberships,
			Fields:    []string{"membership_id", "user_id", "status"},
			Params:    []any{membership.MembershipID, membership.UserID, membership.Status},
			Returning: []string{"requested_on"},
		})
		if err != nil {
			return err
		}
		requestedOn, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[time.Time])
		if err != nil {
			return err
		}

		membership.RequestedOn = requestedOn
		return nil
	})

	switch {
	case err == nil:
		return nil
	case apperr.IsAppError(err):
		return err
	case dberr.IsUniqueViolation(err):
		return apperr.Conflict(msgAlreadyPending).WithCause(err)
	default:
		return fmt.Errorf("postgres_membership_repo_create_failed: %w", err)
	}
}

// ListQuery builds the queue query for filter.
func ListQuery(filter ListFilter) postgres.SelectQuery {
	where := (&postgres.Predicate{}).
		AndIf(filter.Email != "", "l.user_email ILIKE ?", postgres.Contains(filter.Email)).
		AndIf(filter.Name != "", "u.user_name ILIKE ?", postgres.Contains(filter.Name)).
		AndIf(filter.Status != "", "m.status ILIKE ?", postgres.Contains(filter.Status))

	switch {
	case filter.After != nil && filter.AfterID != "":
		where.And("(m.requested_on, m.membership_id) > (?, ?::uuid)", *filter.After, filter.AfterID)
	case filter.After != nil:
		where.And("m.requested_on > ?", *filter.After)
	}

	return postgres.SelectQuery{
		Columns: []string{
			"m.membership_id",
			"m.user_id",
			"l.user_email",
			"COALESCE(u.user_name, '') AS user_name",
			"m.status",
			"m.requested_on",
		},
		Table: "memberships m",
		LeftJoins: []postgres.Join{
			{Table: "logins l", On: "l.user_id = m.user_id"},
			{Table: "users u", On: "u.user_id = m.user_id"},
		},
		Where:   where.SQL(),
		OrderBy: "m.requested_on ASC, m.membership_id ASC",
		Limit:   filter.FetchLimit(),
		Params:  where.Params(),
	}
}

// List returns the fetched page of the queue.
func (repository *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	rows, err := repository.gateway.Select(ctx, ListQuery(filter))
	if err != nil {
		return nil, dberr.Wrap(err, "Membership")
	}

	entries, err := pgx.CollectRows(rows, pgx.RowToStructByName[Entry])
	if err != nil {
		return nil, fmt.Errorf("postgres_membership_repo_list_failed: %w", err)
	}

	return entries, nil
}
