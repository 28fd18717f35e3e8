// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"figdex/internal/middleware"
	"figdex/internal/models"
	"figdex/internal/users"
)

// UserService administers accounts.
type UserService interface {
	Register(ctx context.Context, in users.RegisterInput) (*models.User, error)
	Get(ctx context.Context, viewer *models.Viewer, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, viewer *models.Viewer) ([]models.User, error)
	Update(ctx context.Context, viewer *models.Viewer, id uuid.UUID, patch users.UpdatePatch) (*models.User, error)
}

// Users serves registration and account administration.
type Users struct {
	svc UserService
}

// NewUsers creates the user handler group.
func NewUsers(svc UserService) *Users {
	return &Users{svc: svc}
}

// Register handles POST /api/auth/register.
func (h *Users) Register(w http.ResponseWriter, r *http.Request) {
	var in users.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.svc.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// List handles GET /api/users.
func (h *Users) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), middleware.ViewerFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": list})
}

// Get handles GET /api/users/{id}.
func (h *Users) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.svc.Get(r.Context(), middleware.ViewerFromCtx(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Update handles PATCH /api/users/{id}.
func (h *Users) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch users.UpdatePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.svc.Update(r.Context(), middleware.ViewerFromCtx(r.Context()), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
