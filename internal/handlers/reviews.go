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
	"figdex/internal/review"
)

// ReviewService is the review gate.
type ReviewService interface {
	Create(ctx context.Context, viewer *models.Viewer, figureID uuid.UUID, in review.CreateInput) (*models.Review, error)
	Update(ctx context.Context, viewer *models.Viewer, id uuid.UUID, patch review.UpdatePatch) (*models.Review, error)
	Delete(ctx context.Context, viewer *models.Viewer, id uuid.UUID) error
	ListForFigure(ctx context.Context, viewer *models.Viewer, figureID uuid.UUID) ([]models.Review, error)
	FigureRating(ctx context.Context, viewer *models.Viewer, figureID uuid.UUID) (*models.FigureRating, error)
}

// Reviews serves figure reviews and ratings.
type Reviews struct {
	svc ReviewService
}

// NewReviews creates the review handler group.
func NewReviews(svc ReviewService) *Reviews {
	return &Reviews{svc: svc}
}

// List handles GET /api/figures/{id}/reviews.
func (h *Reviews) List(w http.ResponseWriter, r *http.Request) {
	figureID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	reviews, err := h.svc.ListForFigure(r.Context(), middleware.ViewerFromCtx(r.Context()), figureID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": reviews})
}

// Rating handles GET /api/figures/{id}/rating.
func (h *Reviews) Rating(w http.ResponseWriter, r *http.Request) {
	figureID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rating, err := h.svc.FigureRating(r.Context(), middleware.ViewerFromCtx(r.Context()), figureID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rating)
}

// Create handles POST /api/figures/{id}/reviews.
func (h *Reviews) Create(w http.ResponseWriter, r *http.Request) {
	figureID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in review.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	rev, err := h.svc.Create(r.Context(), middleware.ViewerFromCtx(r.Context()), figureID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}

// Update handles PATCH /api/reviews/{id}.
func (h *Reviews) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch review.UpdatePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	rev, err := h.svc.Update(r.Context(), middleware.ViewerFromCtx(r.Context()), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

// Delete handles DELETE /api/reviews/{id}.
func (h *Reviews) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), middleware.ViewerFromCtx(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
