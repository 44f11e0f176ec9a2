// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx shared by [pgxpool.Pool] and [pgx.Tx].
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Executor runs query descriptions against a [Querier].
type Executor struct {
	querier Querier
}

// NewExecutor binds an Executor to a pool, connection or transaction.
func NewExecutor(querier Querier) Executor {
	return Executor{querier: querier}
}

// Select runs q and returns the open row set. The caller closes it, usually via
// pgx.CollectRows.
func (executor Executor) Select(ctx context.Context, q SelectQuery) (pgx.Rows, error) {
	rows, err := executor.querier.Query(ctx, q.SQL(), q.Params...)
	if err != nil {
		return nil, fmt.Errorf("postgres_select_%s_failed: %w", q.Table, err)
	}
	return rows, nil
}

// Insert runs q and returns the RETURNING rows.
func (executor Executor) Insert(ctx context.Context, q InsertQuery) (pgx.Rows, error) {
	if len(q.Fields) != len(q.Params) {
		return nil, fmt.Errorf("postgres_insert_%s_failed: %d fields but %d params", q.Table, len(q.Fields), len(q.Params))
	}

	rows, err := executor.querier.Query(ctx, q.SQL(), q.Params...)
	if err != nil {
		return nil, fmt.Errorf("postgres_insert_%s_failed: %w", q.Table, err)
	}
	return rows, nil
}

// Update runs q and returns the number of affected rows.
func (executor Executor) Update(ctx context.Context, q UpdateQuery) (int64, error) {
	tag, err := executor.querier.Exec(ctx, q.SQL(), q.Params...)
	if err != nil {
		return 0, fmt.Errorf("postgres_update_%s_failed: %w", q.Table, err)
	}
	return tag.RowsAffected(), nil
}

// # Gateway

// Pool is what the gateway needs from a connection pool. [*pgxpool.Pool]
// satisfies it.
type Pool interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// Gateway is the single entry point of the stores into PostgreSQL.
//
// Its embedded [Executor] runs statements directly on the pool; [Gateway.InTx]
// hands a transaction-bound Executor to a callback.
type Gateway struct {
	Executor
	pool   Pool
	logger *slog.Logger
}

// NewGateway wraps pool.
func NewGateway(pool Pool, logger *slog.Logger) *Gateway {
	return &Gateway{Executor: NewExecutor(pool), pool: pool, logger: logger}
}

/*
InTx runs fn inside one transaction.

The transaction commits when fn returns nil. Any error from fn (or a panic)
rolls it back; the error fn returned is passed through unchanged so callers
can still match application errors with errors.As.
*/
func (gateway *Gateway) InTx(ctx context.Context, fn func(Executor) error) (err error) {
	tx, err := gateway.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres_tx_begin_failed: %w", err)
	}
	gateway.logger.DebugContext(ctx, "tx_begin")

	defer func() {
		if recovered := recover(); recovered != nil {
			_ = tx.Rollback(ctx)
			gateway.logger.ErrorContext(ctx, "tx_rollback_panic", slog.Any("panic", recovered))
			panic(recovered)
		}
	}()

	if err = fn(NewExecutor(tx)); err != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			gateway.logger.ErrorContext(ctx, "tx_rollback_failed", slog.Any("error", rollbackErr))
		}
		gateway.logger.DebugContext(ctx, "tx_rollback", slog.String("reason", err.Error()))
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres_tx_commit_failed: %w", err)
	}
	gateway.logger.DebugContext(ctx, "tx_commit")

	return nil
}

// Ping checks the underlying pool.
func (gateway *Gateway) Ping(ctx context.Context) error {
	return Ping(ctx, gateway.pool)
}

// Drain closes rows from a statement whose result is not needed and reports
// the statement error, which pgx may only surface once the rows are consumed.
//
//	err := postgres.Drain(tx.Insert(ctx, query))
func Drain(rows pgx.Rows, err error) error {
	if err != nil {
		return err
	}
	rows.Close()
	return rows.Err()
}
