// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"figdex/internal/collection"
	"figdex/internal/middleware"
	"figdex/internal/models"
)

// CollectionService is the per-user collection ledger.
type CollectionService interface {
	Track(ctx context.Context, viewer *models.Viewer, in collection.TrackInput) (*models.CollectionEntry, error)
	Retarget(ctx context.Context, viewer *models.Viewer, entryID uuid.UUID, patch collection.RetargetPatch) (*models.CollectionEntry, error)
	Untrack(ctx context.Context, viewer *models.Viewer, entryID uuid.UUID) error
	List(ctx context.Context, viewer *models.Viewer, status *models.CollectionStatus) ([]models.CollectionEntry, error)
	Calendar(ctx context.Context, viewer *models.Viewer, monthFilter string) (*collection.Calendar, error)
}

// Collection serves /api/collection.
type Collection struct {
	svc CollectionService
}

// NewCollection creates the collection handler group.
func NewCollection(svc CollectionService) *Collection {
	return &Collection{svc: svc}
}

// List handles GET /api/collection?status=.
func (c *Collection) List(w http.ResponseWriter, r *http.Request) {
	var status *models.CollectionStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.CollectionStatus(raw)
		status = &s
	}
	entries, err := c.svc.List(r.Context(), middleware.ViewerFromCtx(r.Context()), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": entries})
}

// Track handles POST /api/collection.
func (c *Collection) Track(w http.ResponseWriter, r *http.Request) {
	var in collection.TrackInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := c.svc.Track(r.Context(), middleware.ViewerFromCtx(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// Retarget handles PATCH /api/collection/{id}.
func (c *Collection) Retarget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch collection.RetargetPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := c.svc.Retarget(r.Context(), middleware.ViewerFromCtx(r.Context()), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Untrack handles DELETE /api/collection/{id}.
func (c *Collection) Untrack(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := c.svc.Untrack(r.Context(), middleware.ViewerFromCtx(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Calendar handles GET /api/collection/calendar?month=.
func (c *Collection) Calendar(w http.ResponseWriter, r *http.Request) {
	cal, err := c.svc.Calendar(r.Context(), middleware.ViewerFromCtx(r.Context()), r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}
