// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Seed bootstraps the first superadmin account. It is a no-op when a
// superadmin already exists or when no email is configured.
func Seed(db *sql.DB, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		slog.Info("no superadmin email configured, skipping seed")
		return nil
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users WHERE role = 'SUPERADMIN'").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	// An existing account with that email is promoted rather than duplicated.
	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, display_name, role)
		VALUES ($1, $2, $3, 'SUPERADMIN')
		ON CONFLICT (email) DO UPDATE SET role = 'SUPERADMIN', updated_at = NOW()
	`, email, string(hash), "Superadmin")
	if err != nil {
		return fmt.Errorf("seed insert superadmin: %w", err)
	}

	slog.Info("database seeded with superadmin", "email", email)
	return nil
}
