// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the KKM membership registry HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables (and an optional .env file).
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis when REDIS_URL is set.
//  5. Run database migrations (idempotent).
//  6. Wire token service, cookie signer, stores, services and handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/kkm-registry/internal/api"
	"github.com/taibuivan/kkm-registry/internal/membership"
	"github.com/taibuivan/kkm-registry/internal/platform/config"
	"github.com/taibuivan/kkm-registry/internal/platform/constants"
	"github.com/taibuivan/kkm-registry/internal/platform/middleware"
	"github.com/taibuivan/kkm-registry/internal/platform/migration"
	pgstore "github.com/taibuivan/kkm-registry/internal/platform/postgres"
	redisstore "github.com/taibuivan/kkm-registry/internal/platform/redis"
	"github.com/taibuivan/kkm-registry/internal/platform/sec"
	"github.com/taibuivan/kkm-registry/internal/users/account"
	"github.com/taibuivan/kkm-registry/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("login_throttle", cfg.ThrottleEnabled()),
	)

	// Root context for startup. A 30s deadline surfaces misconfiguration
	// instead of hanging.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	// ── 4. Redis (optional) ───────────────────────────────────────────────
	var (
		throttle   auth.LoginThrottle = auth.NoopLoginThrottle{}
		checkCache api.HealthCheck
	)

	if cfg.ThrottleEnabled() {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing_redis_client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_error", slog.Any("error", cerr))
			}
		}()

		throttle = auth.NewLoginThrottle(rdb, cfg.LoginMaxAttempts, cfg.LoginLockoutWindow)
		checkCache = func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
	}

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Security ───────────────────────────────────────────────────────
	tokens, err := sec.NewTokenService(sec.TokenConfig{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		Issuer:        constants.AuthIssuer,
	})
	must(log, err, "initialize token service")

	cookies, err := sec.NewCookieSigner(cfg.CookieSecret, cfg.RefreshTokenTTL, cfg.IsProduction())
	must(log, err, "initialize cookie signer")

	trust, err := middleware.NewProxyTrust(cfg.TrustedProxies)
	must(log, err, "parse trusted proxies")

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	gateway := pgstore.NewGateway(pool, log)

	accountRepository := auth.NewAccountRepository(gateway)
	authService, err := auth.NewService(accountRepository, throttle, tokens)
	must(log, err, "initialize auth service")

	gate := auth.NewGate(tokens, cookies, accountRepository)

	accountService := account.NewService(account.NewProfileRepository(gateway))
	membershipService := membership.NewService(membership.NewRepository(gateway))

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: gateway.Ping,
		CheckCache:    checkCache,
	}, log)

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, trust, gate, api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		Auth:       auth.NewHandler(authService, cookies),
		Account:    account.NewHandler(accountService),
		Membership: membership.NewHandler(membershipService),
	})

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	log.Info("shutting_down_server", slog.Duration("timeout", constants.ShutdownTimeout))

	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// newLogger builds the process-wide JSON logger tagged with the application name.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
