// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package postgres_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/kkm-registry/internal/platform/postgres"
)

/*
TestSelectQuery_SQL verifies joins, filters and limits render with numbered placeholders.
*/
func TestSelectQuery_SQL(t *testing.T) {
	where := (&postgres.Predicate{}).
		And("l.user_email > ?", "a@x.io").
		And("u.user_name ILIKE ?", postgres.Contains("jo"))

	query := postgres.SelectQuery{
		Columns:   []string{"l.user_id", "l.user_email", "u.user_name"},
		Table:     "logins l",
		LeftJoins: []postgres.Join{{Table: "users u", On: "u.user_id = l.user_id"}},
		Where:     where.SQL(),
		OrderBy:   "l.user_email ASC",
		Limit:     26,
		Params:    where.Params(),
	}

	assert.Equal(t,
		"SELECT l.user_id, l.user_email, u.user_name FROM logins l"+
			" LEFT JOIN users u ON u.user_id = l.user_id"+
			" WHERE (l.user_email > $1) AND (u.user_name ILIKE $2)"+
			" ORDER BY l.user_email ASC LIMIT 26",
		query.SQL())
	assert.Equal(t, []any{"a@x.io", "%jo%"}, query.Params)
}

func TestSelectQuery_SQL_Minimal(t *testing.T) {
	assert.Equal(t, "SELECT * FROM memberships", postgres.SelectQuery{Table: "memberships"}.SQL())
}

func TestInsertQuery_SQL(t *testing.T) {
	query := postgres.InsertQuery{
		Table:     "logins",
		Fields:    []string{"user_id", "user_email", "user_password"},
		Returning: []string{"user_id", "user_role"},
	}

	assert.Equal(t,
		"INSERT INTO logins (user_id, user_email, user_password) VALUES ($1, $2, $3) RETURNING user_id, user_role",
		query.SQL())
}

func TestUpdateQuery_SQL(t *testing.T) {
	query := postgres.UpdateQuery{
		Table: "users",
		Set:   []string{"user_name", "user_phone_no"},
		Where: "user_id = ?",
	}

	assert.Equal(t, "UPDATE users SET user_name = $1, user_phone_no = $2 WHERE user_id = $3", query.SQL())
}

/*
TestPredicate covers the empty builder, conditional clauses and parameter order.
*/
func TestPredicate(t *testing.T) {
	empty := &postgres.Predicate{}
	assert.Equal(t, "", empty.SQL())
	assert.Empty(t, empty.Params())

	p := (&postgres.Predicate{}).
		AndIf(false, "status = ?", "request").
		AndIf(true, "requested_on > ?", "2026-01-01T00:00:00Z").
		And("user_email ILIKE ?", "%a%")

	assert.Equal(t, "(requested_on > ?) AND (user_email ILIKE ?)", p.SQL())
	assert.Equal(t, []any{"2026-01-01T00:00:00Z", "%a%"}, p.Params())
}

func TestContains_EscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\%\_off%`, postgres.Contains("50%_off"))
}
