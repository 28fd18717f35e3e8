// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the FigDex API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"figdex/internal/cache"
	"figdex/internal/collection"
	"figdex/internal/config"
	"figdex/internal/database"
	"figdex/internal/handlers"
	"figdex/internal/middleware"
	"figdex/internal/moderation"
	"figdex/internal/review"
	"figdex/internal/router"
	"figdex/internal/session"
	"figdex/internal/settings"
	"figdex/internal/store"
	"figdex/internal/users"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Bootstrap the superadmin account (no-op if it already exists).
	if err := database.Seed(db, cfg.SuperadminEmail, cfg.SuperadminPassword); err != nil {
		slog.Error("failed to seed database", "error", err)
		os.Exit(1)
	}

	// Connect to Valkey (sessions and rate limit counters).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, cfg.SessionTTL, secureCookies)
	tokens := session.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	entityStore := store.NewEntityStore(db)
	collectionStore := store.NewCollectionStore(db)
	reviewStore := store.NewReviewStore(db)
	settingStore := store.NewSystemSettingStore(db)
	tx := database.NewTxManager(db)

	// Domain services.
	settingsSvc := settings.NewService(settingStore)
	catalogSvc := moderation.NewService(entityStore, settingsSvc, tx)
	ledgerSvc := collection.NewService(collectionStore, entityStore, tx)
	reviewSvc := review.NewService(reviewStore, collectionStore, entityStore, catalogSvc, tx)
	userSvc := users.NewService(userStore)

	// Set up the Chi router with all middleware and routes.
	r := router.New(router.Handlers{
		Auth:       handlers.NewAuth(sessionStore, tokens, userStore),
		Catalog:    handlers.NewCatalog(catalogSvc),
		Collection: handlers.NewCollection(ledgerSvc),
		Reviews:    handlers.NewReviews(reviewSvc),
		Users:      handlers.NewUsers(userSvc),
		Config:     handlers.NewConfig(settingsSvc),
	}, router.Options{
		Resolver:      session.NewResolver(sessionStore, tokens, userStore),
		AuthLimiter:   middleware.NewRateLimiter(valkeyClient, "auth", cfg.LoginRateLimit),
		SecureCookies: secureCookies,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
