// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"figdex/internal/database"
	"figdex/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "figdex")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "figdex")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// testUser creates a throwaway user and removes it when the test ends.
// Register it before any rows that reference it so cleanups run in order.
func testUser(t *testing.T, db *sql.DB, role models.Role) *models.User {
	t.Helper()

	email := "store-" + uuid.NewString() + "@store-test.local"
	u, err := NewUserStore(db).Create(context.Background(), email, "pass", "Store Test", role)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() { cleanUsers(t, db, email) })
	return u
}

// testEntity inserts a catalog row of kind and removes it when the test ends.
func testEntity(t *testing.T, db *sql.DB, e *models.Entity) *models.Entity {
	t.Helper()

	if e.Slug == "" {
		e.Slug = "store-test-" + uuid.NewString()
	}
	if e.Name == "" {
		e.Name = e.Slug
	}
	if e.Status == "" {
		e.Status = models.StatusApproved
	}
	if e.Kind == models.KindFigure && e.Figure == nil {
		e.Figure = &models.FigureAttrs{}
	}
	if err := NewEntityStore(db).Create(context.Background(), e); err != nil {
		t.Fatalf("create test %s: %v", e.Kind, err)
	}
	t.Cleanup(func() {
		NewEntityStore(db).Delete(context.Background(), e.Kind, e.ID)
	})
	return e
}

// cleanUsers removes test users by email. Call in t.Cleanup().
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}

func ptr[T any](v T) *T {
	return &v
}
