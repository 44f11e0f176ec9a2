// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package postgres

import (
	"fmt"
	"strconv"
	"strings"
)

// # Query Descriptions
//
// Clauses are written with "?" placeholders. SQL() renumbers them to $1..$n in
// textual order, so Params must follow the same order. Values are always bound,
// never interpolated; only identifiers and the integer LIMIT end up in the text.

// Join is a LEFT JOIN target.
type Join struct {
	Table string
	On    string
}

// SelectQuery describes a SELECT statement.
type SelectQuery struct {
	Columns   []string
	Table     string
	LeftJoins []Join
	Where     string
	OrderBy   string
	Limit     int
	Params    []any
}

// SQL renders the statement.
func (q SelectQuery) SQL() string {
	var b strings.Builder

	columns := "*"
	if len(q.Columns) > 0 {
		columns = strings.Join(q.Columns, ", ")
	}
	fmt.Fprintf(&b, "SELECT %s FROM %s", columns, q.Table)

	for _, join := range q.LeftJoins {
		fmt.Fprintf(&b, " LEFT JOIN %s ON %s", join.Table, join.On)
	}
	if q.Where != "" {
		b.WriteString(" WHERE " + q.Where)
	}
	if q.OrderBy != "" {
		b.WriteString(" ORDER BY " + q.OrderBy)
	}
	if q.Limit > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(q.Limit))
	}

	return rebind(b.String())
}

// InsertQuery describes an INSERT of a single row.
type InsertQuery struct {
	Table     string
	Fields    []string
	Params    []any
	Returning []string
}

// SQL renders the statement.
func (q InsertQuery) SQL() string {
	placeholders := make([]string, len(q.Fields))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		q.Table, strings.Join(q.Fields, ", "), strings.Join(placeholders, ", "))

	if len(q.Returning) > 0 {
		sql += " RETURNING " + strings.Join(q.Returning, ", ")
	}

	return rebind(sql)
}

// UpdateQuery describes an UPDATE. Params holds the Set values first, then the
// values referenced by Where.
type UpdateQuery struct {
	Table  string
	Set    []string
	Where  string
	Params []any
}

// SQL renders the statement.
func (q UpdateQuery) SQL() string {
	assignments := make([]string, len(q.Set))
	for i, column := range q.Set {
		assignments[i] = column + " = ?"
	}

	sql := fmt.Sprintf("UPDATE %s SET %s", q.Table, strings.Join(assignments, ", "))
	if q.Where != "" {
		sql += " WHERE " + q.Where
	}

	return rebind(sql)
}

// # Predicate Builder

// Predicate accumulates AND-joined conditions and their bound values.
//
// The zero value is ready to use.
type Predicate struct {
	clauses []string
	params  []any
}

// And appends a condition written with "?" placeholders.
func (p *Predicate) And(clause string, params ...any) *Predicate {
	p.clauses = append(p.clauses, clause)
	p.params = append(p.params, params...)
	return p
}

// AndIf appends the condition only when ok is true.
func (p *Predicate) AndIf(ok bool, clause string, params ...any) *Predicate {
	if ok {
		p.And(clause, params...)
	}
	return p
}

// SQL returns the conditions joined by AND, still using "?" placeholders.
func (p *Predicate) SQL() string {
	if len(p.clauses) == 0 {
		return ""
	}
	return "(" + strings.Join(p.clauses, ") AND (") + ")"
}

// Params returns the bound values in clause order.
func (p *Predicate) Params() []any {
	return p.params
}

// rebind replaces each "?" with $1..$n.
func rebind(sql string) string {
	var b strings.Builder
	b.Grow(len(sql) + 8)

	n := 0
	for _, r := range sql {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// Contains wraps a filter value for a case-insensitive substring match with ILIKE,
// escaping the pattern metacharacters the caller supplied.
func Contains(value string) string {
	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + escaper.Replace(value) + "%"
}
