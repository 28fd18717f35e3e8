// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"figdex/internal/database"
	"figdex/internal/models"
)

// SystemSettingStore manages process-wide configuration in the database.
type SystemSettingStore struct {
	db *sql.DB
}

// NewSystemSettingStore returns a new SystemSettingStore backed by the given database.
func NewSystemSettingStore(db *sql.DB) *SystemSettingStore {
	return &SystemSettingStore{db: db}
}

// Get returns a single setting by key, or nil if it has never been written.
func (s *SystemSettingStore) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	st := &models.SystemSetting{}
	err := database.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT key, value, updated_at FROM system_config WHERE key = $1`, key,
	).Scan(&st.Key, &st.Value, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get setting %s: %w", key, err)
	}
	return st, nil
}

// Set upserts a single setting. Creates it if it doesn't exist.
func (s *SystemSettingStore) Set(ctx context.Context, key, value string, updatedBy uuid.UUID) (*models.SystemSetting, error) {
	st := &models.SystemSetting{}
	err := database.Conn(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO system_config (key, value, updated_by_id, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_by_id = EXCLUDED.updated_by_id, updated_at = EXCLUDED.updated_at
		RETURNING key, value, updated_at`,
		key, value, updatedBy,
	).Scan(&st.Key, &st.Value, &st.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("set setting %s: %w", key, err)
	}
	return st, nil
}
