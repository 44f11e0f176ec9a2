// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migration applies the registry schema (logins, users, memberships)
// with golang-migrate before the HTTP server starts.
package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

/*
RunUp brings the schema at dsn up to the newest migration under dir.

A dirty schema (a previous run failed half-way) is never touched; it needs an
operator to force the version first.
*/
func RunUp(dsn string, dir string, logger *slog.Logger) error {
	source, err := sourceURL(dir)
	if err != nil {
		return err
	}

	migrator, err := migrate.New(source, pgx5URL(dsn))
	if err != nil {
		return fmt.Errorf("migration_init_failed: %w", err)
	}
	defer closeMigrator(migrator, logger)

	migrator.Log = slogAdapter{logger: logger}

	from, err := cleanVersion(migrator)
	if err != nil {
		return err
	}

	logger.Info("migration_started", slog.Uint64("version", uint64(from)), slog.String("source", source))

	switch err := migrator.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("migration_already_up_to_date", slog.Uint64("version", uint64(from)))
		return nil
	case err != nil:
		return fmt.Errorf("migration_up_failed: %w", err)
	}

	to, _, _ := migrator.Version()
	logger.Info("migration_applied", slog.Uint64("from_version", uint64(from)), slog.Uint64("to_version", uint64(to)))
	return nil
}

// cleanVersion returns the applied version, zero for an empty database.
func cleanVersion(migrator *migrate.Migrate) (uint, error) {
	version, dirty, err := migrator.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("migration_version_failed: %w", err)
	case dirty:
		return 0, fmt.Errorf("migration_dirty_schema: version %d needs manual repair", version)
	}
	return version, nil
}

func closeMigrator(migrator *migrate.Migrate, logger *slog.Logger) {
	sourceErr, databaseErr := migrator.Close()
	if err := errors.Join(sourceErr, databaseErr); err != nil {
		logger.Warn("migration_close_failed", slog.Any("error", err))
	}
}

// sourceURL turns a migrations directory into a file:// source URL.
func sourceURL(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("migration_path_invalid: %w", err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// pgx5URL rewrites postgres:// and postgresql:// URLs to the pgx5:// scheme
// registered by the golang-migrate pgx v5 driver.
func pgx5URL(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}

// slogAdapter routes golang-migrate's progress lines to the debug level.
type slogAdapter struct {
	logger *slog.Logger
}

func (adapter slogAdapter) Printf(format string, args ...any) {
	adapter.logger.Debug("migration_progress", slog.String("detail", strings.TrimSpace(fmt.Sprintf(format, args...))))
}

func (adapter slogAdapter) Verbose() bool {
	return adapter.logger.Enabled(context.Background(), slog.LevelDebug)
}
