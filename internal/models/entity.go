// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies one of the five moderated catalog entity kinds.
type Kind string

const (
	KindFigure    Kind = "figure"
	KindBrand     Kind = "brand"
	KindLine      Kind = "line"
	KindSeries    Kind = "series"
	KindCharacter Kind = "character"
)

// Kinds lists every moderated kind.
var Kinds = []Kind{KindFigure, KindBrand, KindLine, KindSeries, KindCharacter}

// kindPaths maps URL collection names to kinds.
var kindPaths = map[string]Kind{
	"figures":    KindFigure,
	"brands":     KindBrand,
	"lines":      KindLine,
	"series":     KindSeries,
	"characters": KindCharacter,
}

// KindFromPath resolves a plural URL segment such as "figures" to its Kind.
func KindFromPath(segment string) (Kind, bool) {
	k, ok := kindPaths[segment]
	return k, ok
}

// Path returns the plural URL segment of k, e.g. "figures".
func (k Kind) Path() string {
	for seg, kind := range kindPaths {
		if kind == k {
			return seg
		}
	}
	return ""
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindFigure, KindBrand, KindLine, KindSeries, KindCharacter:
		return true
	}
	return false
}

// ParentKind returns the kind a ParentID refers to. Lines belong to a brand
// and characters to a series; other kinds have no parent.
func (k Kind) ParentKind() (Kind, bool) {
	switch k {
	case KindLine:
		return KindBrand, true
	case KindCharacter:
		return KindSeries, true
	}
	return "", false
}

// Status is the moderation state of a catalog entity. There is no rejected
// state: rejection means reverting to pending or deleting the row.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
)

// Entity is a moderated catalog record. Kind-specific attributes live in
// ParentID (lines, characters) and Figure (figures only).
type Entity struct {
	ID           uuid.UUID    `json:"id"`
	Kind         Kind         `json:"kind"`
	Name         string       `json:"name"`
	Slug         string       `json:"slug"`
	Description  *string      `json:"description,omitempty"`
	Status       Status       `json:"status"`
	CreatedByID  uuid.UUID    `json:"created_by_id"`
	ApprovedByID *uuid.UUID   `json:"approved_by_id"`
	ApprovedAt   *time.Time   `json:"approved_at"`
	ParentID     *uuid.UUID   `json:"parent_id,omitempty"`
	Figure       *FigureAttrs `json:"figure,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// IsApproved returns true if the entity is publicly visible by default.
func (e *Entity) IsApproved() bool {
	return e.Status == StatusApproved
}

// FigureAttrs holds the attributes only figures carry.
type FigureAttrs struct {
	BrandID      *uuid.UUID  `json:"brand_id"`
	LineID       *uuid.UUID  `json:"line_id"`
	PriceMXN     *Money      `json:"price_mxn"`
	ReleaseDate  *string     `json:"release_date"`
	Images       []string    `json:"images"`
	Tags         []string    `json:"tags"`
	SeriesIDs    []uuid.UUID `json:"series_ids"`
	CharacterIDs []uuid.UUID `json:"character_ids"`
}

// FigureSummary is the slice of a figure embedded in collection rows and
// calendar buckets.
type FigureSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Status      Status    `json:"status"`
	PriceMXN    *Money    `json:"price_mxn"`
	ReleaseDate *string   `json:"release_date"`
}

// Listing page bounds.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// EntityQuery narrows a catalog listing. BrandID and LineID only apply to
// figures.
type EntityQuery struct {
	Search  string
	BrandID *uuid.UUID
	LineID  *uuid.UUID
	Limit   int
	Offset  int
}

// Normalize clamps paging to the allowed range.
func (q EntityQuery) Normalize() EntityQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}
