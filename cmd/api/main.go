// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the localmart gateway.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open session storage (memory or Redis).
//  4. Open local storage (memory, SQLite or PostgreSQL with migrations).
//  5. Build the tab token service and the directory client.
//  6. Wire HTTP handlers.
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

	"github.com/taibuivan/localmart/internal/api"
	"github.com/taibuivan/localmart/internal/directory"
	"github.com/taibuivan/localmart/internal/otp"
	"github.com/taibuivan/localmart/internal/platform/config"
	"github.com/taibuivan/localmart/internal/platform/constants"
	"github.com/taibuivan/localmart/internal/platform/migration"
	pgstore "github.com/taibuivan/localmart/internal/platform/postgres"
	redisstore "github.com/taibuivan/localmart/internal/platform/redis"
	"github.com/taibuivan/localmart/internal/platform/sec"
	"github.com/taibuivan/localmart/internal/platform/storage"
	"github.com/taibuivan/localmart/internal/recent"
	"github.com/taibuivan/localmart/internal/recovery"
	"github.com/taibuivan/localmart/internal/session"
	"github.com/taibuivan/localmart/internal/tab"
	"github.com/taibuivan/localmart/internal/vendor"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("[localmart] service_initializing", slog.String("version", constants.AppVersion))

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
		slog.String("session_backend", cfg.SessionBackend),
		slog.String("local_backend", cfg.LocalBackend),
	)

	// Root context for startup. A 30s deadline surfaces misconfiguration quickly.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Lives until shutdown; owns the rate limiter cleanup and the OTP sweeper.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	var checks []api.Check

	// ── 3. Session Storage (per tab) ──────────────────────────────────────
	var sessionStore storage.Store = storage.NewMemoryStore()
	if cfg.SessionBackend == config.BackendRedis {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()

		sessionStore = storage.NewRedisStore(rdb, cfg.SessionTTL)
		checks = append(checks, api.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		}})
	}

	// ── 4. Local Storage (per device) ─────────────────────────────────────
	var localStore storage.Store = storage.NewMemoryStore()
	switch cfg.LocalBackend {
	case config.BackendSQLite:
		sqlite, err := storage.OpenSQLite(startupCtx, cfg.SQLitePath)
		must(log, err, "open sqlite")
		defer func() {
			log.Info("closing sqlite database")
			if cerr := sqlite.Close(); cerr != nil {
				log.Error("sqlite close error", slog.Any("error", cerr))
			}
		}()

		localStore = sqlite
		checks = append(checks, api.Check{Name: "sqlite", Ping: sqlite.Ping})

	case config.BackendPostgres:
		pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
		must(log, err, "connect to postgres")
		defer func() {
			log.Info("closing postgres pool")
			pool.Close()
		}()

		must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

		localStore = storage.NewPostgresStore(pool)
		checks = append(checks, api.Check{Name: "postgres", Ping: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		}})
	}

	// ── 5. Tab Tokens & Directory ─────────────────────────────────────────
	tabTokens, err := sec.NewTabTokenService(cfg.SessionSecret, constants.TabTokenIssuer, constants.TabTokenKeyInfo)
	must(log, err, "initialize tab token service")

	directoryClient, err := directory.NewClient(directory.Config{
		DirectoryBaseURL:      cfg.DirectoryBaseURL,
		AuthBaseURL:           cfg.AuthBaseURL,
		Timeout:               cfg.RemoteTimeout,
		AllowInsecureFallback: cfg.AllowInsecureFallback,
	}, log)
	must(log, err, "initialize directory client")

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	scopes := tab.NewScopes(sessionStore, localStore)

	otpRegistry := otp.NewRegistry(cfg.OTPFlowTTL, log)
	go otpRegistry.Run(appCtx, constants.OTPSweepInterval)

	liveness, readiness := api.NewHealthHandlers(checks, log)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Tabs:      tab.NewHandler(tabTokens, cfg.TabTokenTTL),
		Session:   session.NewHandler(scopes, directoryClient, cfg.LandingPath),
		OTP: otp.NewHandler(otpRegistry, scopes, directoryClient, otp.HandlerConfig{
			LoginPath:  cfg.LoginPath,
			SignupPath: cfg.SignupPath,
			NewTicker:  otp.NewRealTicker,
		}),
		Password: recovery.NewHandler(recovery.NewService(directoryClient), cfg.LoginPath),
		Recent:   recent.NewHandler(scopes, time.Now),
		Vendor:   vendor.NewHandler(scopes, directoryClient, cfg.LandingPath),
	}

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(appCtx, cfg, log, tabTokens, handlers)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	shutdownErr := server.Shutdown(shutdownTimeout)

	// Stops the sweeper, which closes every OTP page and its countdown.
	appCancel()
	otpRegistry.Close()

	if shutdownErr != nil {
		log.Error("shutdown error", slog.Any("error", shutdownErr))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// newLogger builds the JSON logger every startup step and request inherits.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
