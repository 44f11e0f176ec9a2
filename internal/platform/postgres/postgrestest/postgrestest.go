// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package postgrestest provides an in-memory [postgres.Pool] for exercising
// stores and transactions without a database.
//
// Every statement returns an empty row set. Failures are injected per
// statement fragment and surface from rows.Err, the way pgx reports most
// server errors.
package postgrestest

import (
	"context"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Pool records statements and transaction outcomes.
type Pool struct {
	mu         sync.Mutex
	failures   map[string]error
	statements []string

	BeginErr  error
	CommitErr error

	begins    int
	commits   int
	rollbacks int
}

// NewPool returns an empty Pool.
func NewPool() *Pool {
	return &Pool{failures: make(map[string]error)}
}

// FailOn makes every statement containing fragment fail with err.
func (pool *Pool) FailOn(fragment string, err error) {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	pool.failures[fragment] = err
}

// Statements lists the SQL seen so far, in order.
func (pool *Pool) Statements() []string {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	return append([]string(nil), pool.statements...)
}

// Begins, Commits and Rollbacks count transaction events.
func (pool *Pool) Begins() int { return pool.count(&pool.begins) }
func (pool *Pool) Commits() int { return pool.count(&pool.commits) }
func (pool *Pool) Rollbacks() int { return pool.count(&pool.rollbacks) }

func (pool *Pool) count(counter *int) int {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	return *counter
}

func (pool *Pool) record(sql string) error {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	pool.statements = append(pool.statements, sql)
	for fragment, err := range pool.failures {
		if strings.Contains(sql, fragment) {
			return err
		}
	}
	return nil
}

// Exec reports one affected row unless a failure matches.
func (pool *Pool) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	if err := pool.record(sql); err != nil {
		return pgconn.CommandTag{}, err
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

// Query returns an empty row set whose Err carries any matching failure.
func (pool *Pool) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	return &rows{err: pool.record(sql)}, nil
}

// Ping always succeeds.
func (pool *Pool) Ping(context.Context) error { return nil }

// Begin opens a fake transaction sharing the pool's statement log.
func (pool *Pool) Begin(context.Context) (pgx.Tx, error) {
	if pool.BeginErr != nil {
		return nil, pool.BeginErr
	}

	pool.mu.Lock()
	pool.begins++
	pool.mu.Unlock()

	return &tx{pool: pool}, nil
}

// tx implements the parts of pgx.Tx the gateway uses. Anything else panics
// through the nil embedded interface.
type tx struct {
	pgx.Tx
	pool *Pool
	done bool
}

func (t *tx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if t.done {
		return pgconn.CommandTag{}, pgx.ErrTxClosed
	}
	return t.pool.Exec(ctx, sql, args...)
}

func (t *tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if t.done {
		return nil, pgx.ErrTxClosed
	}
	return t.pool.Query(ctx, sql, args...)
}

func (t *tx) Commit(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true

	t.pool.mu.Lock()
	defer t.pool.mu.Unlock()
	if t.pool.CommitErr != nil {
		return t.pool.CommitErr
	}
	t.pool.commits++
	return nil
}

func (t *tx) Rollback(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true

	t.pool.mu.Lock()
	defer t.pool.mu.Unlock()
	t.pool.rollbacks++
	return nil
}

// rows is an empty result set.
type rows struct {
	pgx.Rows
	err error
}

func (r *rows) Next() bool { return false }
func (r *rows) Err() error { return r.err }
func (r *rows) Close() {}
func (r *rows) CommandTag() pgconn.CommandTag { return pgconn.NewCommandTag("INSERT 0 1") }
