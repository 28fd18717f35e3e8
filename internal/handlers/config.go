// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"figdex/internal/middleware"
	"figdex/internal/models"
)

// SettingsService reads and writes system configuration.
type SettingsService interface {
	Get(ctx context.Context, viewer *models.Viewer, key string) (*models.SystemSetting, error)
	Set(ctx context.Context, viewer *models.Viewer, key, value string) (*models.SystemSetting, error)
}

// Config serves /api/config/{key}.
type Config struct {
	svc SettingsService
}

// NewConfig creates the config handler group.
func NewConfig(svc SettingsService) *Config {
	return &Config{svc: svc}
}

// setConfigRequest accepts the value as a JSON string or a bare scalar,
// so both {"value": "true"} and {"value": true} work.
type setConfigRequest struct {
	Value json.RawMessage `json:"value" validate:"required"`
}

func (req setConfigRequest) text() string {
	var s string
	if err := json.Unmarshal(req.Value, &s); err == nil {
		return s
	}
	return string(req.Value)
}

// Get handles GET /api/config/{key}.
func (h *Config) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Get(r.Context(), middleware.ViewerFromCtx(r.Context()), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Set handles PUT /api/config/{key}.
func (h *Config) Set(w http.ResponseWriter, r *http.Request) {
	var req setConfigRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := h.svc.Set(r.Context(), middleware.ViewerFromCtx(r.Context()), chi.URLParam(r, "key"), req.text())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
