// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package settings exposes the process-wide system configuration. Values are
// read through to the database on every call; nothing is cached.
package settings

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"figdex/internal/apperr"
	"figdex/internal/models"
)

// Repository is the persistence the settings service needs.
type Repository interface {
	Get(ctx context.Context, key string) (*models.SystemSetting, error)
	Set(ctx context.Context, key, value string, updatedBy uuid.UUID) (*models.SystemSetting, error)
}

// Service reads and writes system configuration.
type Service struct {
	repo Repository
}

// NewService creates a settings service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ShowPendingFigures reports whether pending figures are listed for every
// viewer. A missing row, an unparseable value or a read error all mean false.
func (s *Service) ShowPendingFigures(ctx context.Context) bool {
	st, err := s.repo.Get(ctx, models.SettingShowPendingFigures)
	if err != nil {
		slog.Error("read setting failed", "key", models.SettingShowPendingFigures, "error", err)
		return false
	}
	if st == nil {
		return false
	}
	return models.ParseFlag(st.Value)
}

// Get returns a setting. Unset known keys read as an empty value.
func (s *Service) Get(ctx context.Context, viewer *models.Viewer, key string) (*models.SystemSetting, error) {
	if !viewer.Authenticated() {
		return nil, apperr.Unauthenticated("sign in to read settings")
	}
	if !viewer.IsAdmin() {
		return nil, apperr.Forbidden("settings are restricted to admins")
	}
	if !models.KnownSetting(key) {
		return nil, apperr.NotFound("setting %s", key)
	}

	st, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return &models.SystemSetting{Key: key}, nil
	}
	return st, nil
}

// Set writes a setting. Only a superadmin may change configuration.
func (s *Service) Set(ctx context.Context, viewer *models.Viewer, key, value string) (*models.SystemSetting, error) {
	if !viewer.Authenticated() {
		return nil, apperr.Unauthenticated("sign in to change settings")
	}
	if !viewer.IsSuperadmin() {
		return nil, apperr.Forbidden("only a superadmin may change settings")
	}
	if !models.KnownSetting(key) {
		return nil, apperr.NotFound("setting %s", key)
	}

	// Every known setting is a flag; store it canonically.
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return nil, apperr.Validation("%s must be true or false", key)
	}

	st, err := s.repo.Set(ctx, key, strconv.FormatBool(b), viewer.ID)
	if err != nil {
		return nil, err
	}
	slog.Info("setting changed", "key", key, "value", st.Value, "by", viewer.ID)
	return st, nil
}
