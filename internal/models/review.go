// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Rating bounds and the per-review image cap.
const (
	MinRating       = 1
	MaxRating       = 5
	MaxReviewImages = 5
)

// Review is a collector's review of a figure they own. At most one review
// exists per (UserID, FigureID).
type Review struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	FigureID    uuid.UUID `json:"figure_id"`
	Rating      int       `json:"rating"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	// DescriptionHTML is Description rendered from Markdown; not stored.
	DescriptionHTML string    `json:"description_html"`
	Images          []string  `json:"images"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// FigureRating is the display rating of a figure. Average is nil when the
// figure has no reviews.
type FigureRating struct {
	FigureID uuid.UUID `json:"figure_id"`
	Average  *float64  `json:"average"`
	Count    int       `json:"count"`
}
