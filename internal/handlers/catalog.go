// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"figdex/internal/apperr"
	"figdex/internal/middleware"
	"figdex/internal/models"
	"figdex/internal/moderation"
	"figdex/internal/visibility"
)

// CatalogService is the moderated catalog.
type CatalogService interface {
	List(ctx context.Context, viewer *models.Viewer, kind models.Kind, scope visibility.Scope, q models.EntityQuery) ([]models.Entity, error)
	Get(ctx context.Context, viewer *models.Viewer, kind models.Kind, id uuid.UUID) (*models.Entity, error)
	Create(ctx context.Context, actor *models.Viewer, kind models.Kind, in moderation.EntityInput) (*models.Entity, error)
	SetApproval(ctx context.Context, actor *models.Viewer, kind models.Kind, id uuid.UUID, approved bool) (*models.Entity, error)
	Update(ctx context.Context, actor *models.Viewer, kind models.Kind, id uuid.UUID, patch moderation.EntityPatch) (*models.Entity, error)
	Delete(ctx context.Context, actor *models.Viewer, kind models.Kind, id uuid.UUID) error
}

// Catalog serves the five moderated entity collections. Each method
// returns the handler for one kind.
type Catalog struct {
	svc CatalogService
}

// NewCatalog creates the catalog handler group.
func NewCatalog(svc CatalogService) *Catalog {
	return &Catalog{svc: svc}
}

type approvalRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

// List handles GET /api/{kind}.
func (c *Catalog) List(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseEntityQuery(r, kind)
		if err != nil {
			writeError(w, r, err)
			return
		}
		scope := visibility.ParseScope(r.URL.Query().Get("scope"))

		items, err := c.svc.List(r.Context(), middleware.ViewerFromCtx(r.Context()), kind, scope, q)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items":  items,
			"limit":  q.Normalize().Limit,
			"offset": q.Normalize().Offset,
		})
	}
}

// Get handles GET /api/{kind}/{id}.
func (c *Catalog) Get(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		e, err := c.svc.Get(r.Context(), middleware.ViewerFromCtx(r.Context()), kind, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// Create handles POST /api/{kind}.
func (c *Catalog) Create(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in moderation.EntityInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		e, err := c.svc.Create(r.Context(), middleware.ViewerFromCtx(r.Context()), kind, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

// SetApproval handles POST /api/{kind}/{id}/approval.
func (c *Catalog) SetApproval(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req approvalRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		e, err := c.svc.SetApproval(r.Context(), middleware.ViewerFromCtx(r.Context()), kind, id, *req.Approved)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// Update handles PATCH /api/{kind}/{id}.
func (c *Catalog) Update(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var patch moderation.EntityPatch
		if err := decodeJSON(w, r, &patch); err != nil {
			writeError(w, r, err)
			return
		}
		e, err := c.svc.Update(r.Context(), middleware.ViewerFromCtx(r.Context()), kind, id, patch)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// Delete handles DELETE /api/{kind}/{id}.
func (c *Catalog) Delete(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := c.svc.Delete(r.Context(), middleware.ViewerFromCtx(r.Context()), kind, id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// parseEntityQuery reads search, filter and paging parameters.
func parseEntityQuery(r *http.Request, kind models.Kind) (models.EntityQuery, error) {
	v := r.URL.Query()
	q := models.EntityQuery{Search: v.Get("q")}

	var err error
	if q.Limit, err = intParam(v.Get("limit")); err != nil {
		return q, apperr.Validation("limit must be an integer")
	}
	if q.Offset, err = intParam(v.Get("offset")); err != nil {
		return q, apperr.Validation("offset must be an integer")
	}

	for name, dst := range map[string]**uuid.UUID{"brand_id": &q.BrandID, "line_id": &q.LineID} {
		raw := v.Get(name)
		if raw == "" {
			continue
		}
		if kind != models.KindFigure {
			return q, apperr.Validation("%s only filters figures", name)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return q, apperr.Validation("%s must be a UUID", name)
		}
		*dst = &id
	}
	return q, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
