// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package moderation

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"figdex/internal/apperr"
	"figdex/internal/models"
	"figdex/internal/slug"
)

// Validation limits for catalog fields.
const (
	maxNameLen        = 200
	maxDescriptionLen = 5_000
	maxImages         = 20
	maxTags           = 30
	maxTagLen         = 50
	maxReleaseDateLen = 20
)

// EntityInput is the payload for creating a catalog entity. ParentID is the
// brand of a line or the series of a character; the remaining fields apply
// to figures only.
type EntityInput struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	ParentID    *uuid.UUID `json:"parent_id"`

	BrandID      *uuid.UUID    `json:"brand_id"`
	LineID       *uuid.UUID    `json:"line_id"`
	PriceMXN     *models.Money `json:"price_mxn"`
	ReleaseDate  *string       `json:"release_date" validate:"omitempty,max=20"`
	Images       []string      `json:"images" validate:"max=20,dive,url"`
	Tags         []string      `json:"tags" validate:"max=30,dive,max=50"`
	SeriesIDs    []uuid.UUID   `json:"series_ids"`
	CharacterIDs []uuid.UUID   `json:"character_ids"`
}

func (in EntityInput) hasFigureFields() bool {
	return in.BrandID != nil || in.LineID != nil || in.PriceMXN != nil || in.ReleaseDate != nil ||
		len(in.Images) > 0 || len(in.Tags) > 0 || len(in.SeriesIDs) > 0 || len(in.CharacterIDs) > 0
}

// EntityPatch is a partial update. Absent fields are kept, null clears and
// a value overwrites. Link sets are replaced wholesale.
type EntityPatch struct {
	Name        models.Field[string]    `json:"name"`
	Description models.Field[string]    `json:"description"`
	ParentID    models.Field[uuid.UUID] `json:"parent_id"`

	BrandID      models.Field[uuid.UUID]    `json:"brand_id"`
	LineID       models.Field[uuid.UUID]    `json:"line_id"`
	PriceMXN     models.Field[models.Money] `json:"price_mxn"`
	ReleaseDate  models.Field[string]       `json:"release_date"`
	Images       models.Field[[]string]     `json:"images"`
	Tags         models.Field[[]string]     `json:"tags"`
	SeriesIDs    models.Field[[]uuid.UUID]  `json:"series_ids"`
	CharacterIDs models.Field[[]uuid.UUID]  `json:"character_ids"`
}

func (p EntityPatch) hasFigureFields() bool {
	return p.BrandID.Set || p.LineID.Set || p.PriceMXN.Set || p.ReleaseDate.Set ||
		p.Images.Set || p.Tags.Set || p.SeriesIDs.Set || p.CharacterIDs.Set
}

// newEntity validates in and builds an unsaved entity of kind.
func newEntity(kind models.Kind, in EntityInput) (*models.Entity, error) {
	if !kind.Valid() {
		return nil, apperr.Validation("unknown kind %q", kind)
	}
	if _, ok := kind.ParentKind(); !ok && in.ParentID != nil {
		return nil, apperr.Validation("%s has no parent", kind)
	}
	if kind != models.KindFigure && in.hasFigureFields() {
		return nil, apperr.Validation("figure attributes are not valid on a %s", kind)
	}

	e := &models.Entity{Kind: kind, ParentID: in.ParentID}
	if err := rename(e, in.Name); err != nil {
		return nil, err
	}
	if err := setDescription(e, in.Description); err != nil {
		return nil, err
	}

	if kind == models.KindFigure {
		attrs := &models.FigureAttrs{
			BrandID:      in.BrandID,
			LineID:       in.LineID,
			PriceMXN:     in.PriceMXN,
			ReleaseDate:  blankToNil(in.ReleaseDate),
			Images:       in.Images,
			Tags:         in.Tags,
			SeriesIDs:    in.SeriesIDs,
			CharacterIDs: in.CharacterIDs,
		}
		if err := normalizeFigure(attrs); err != nil {
			return nil, err
		}
		e.Figure = attrs
	}
	return e, nil
}

// applyPatch merges p into e, validating every touched field.
func applyPatch(e *models.Entity, p EntityPatch) error {
	if _, ok := e.Kind.ParentKind(); !ok && p.ParentID.Set {
		return apperr.Validation("%s has no parent", e.Kind)
	}
	if e.Kind != models.KindFigure && p.hasFigureFields() {
		return apperr.Validation("figure attributes are not valid on a %s", e.Kind)
	}

	if p.Name.Set {
		if p.Name.Null {
			return apperr.Validation("name cannot be cleared")
		}
		if err := rename(e, p.Name.Value); err != nil {
			return err
		}
	}
	if p.Description.Set {
		var desc *string
		p.Description.ApplyPtr(&desc)
		if err := setDescription(e, desc); err != nil {
			return err
		}
	}
	p.ParentID.ApplyPtr(&e.ParentID)

	if e.Kind != models.KindFigure {
		return nil
	}
	f := e.Figure
	p.BrandID.ApplyPtr(&f.BrandID)
	p.LineID.ApplyPtr(&f.LineID)
	p.PriceMXN.ApplyPtr(&f.PriceMXN)
	p.ReleaseDate.ApplyPtr(&f.ReleaseDate)
	f.ReleaseDate = blankToNil(f.ReleaseDate)
	p.Images.Apply(&f.Images)
	p.Tags.Apply(&f.Tags)
	p.SeriesIDs.Apply(&f.SeriesIDs)
	p.CharacterIDs.Apply(&f.CharacterIDs)
	return normalizeFigure(f)
}

// rename sets the name and derives the slug from it.
func rename(e *models.Entity, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return apperr.Validation("name is too long (max %d characters)", maxNameLen)
	}
	s := slug.Generate(name)
	if s == "" {
		return apperr.Validation("name %q has no characters usable in a slug", name)
	}
	e.Name = name
	e.Slug = s
	return nil
}

func setDescription(e *models.Entity, desc *string) error {
	desc = blankToNil(desc)
	if desc != nil && utf8.RuneCountInString(*desc) > maxDescriptionLen {
		return apperr.Validation("description is too long (max %d characters)", maxDescriptionLen)
	}
	e.Description = desc
	return nil
}

// normalizeFigure trims and de-duplicates the link sets and checks bounds.
func normalizeFigure(f *models.FigureAttrs) error {
	if f.PriceMXN != nil && !f.PriceMXN.Valid() {
		return apperr.Validation("price must be between 0 and %s", models.MaxMoney)
	}
	if f.ReleaseDate != nil && utf8.RuneCountInString(*f.ReleaseDate) > maxReleaseDateLen {
		return apperr.Validation("release date is too long (max %d characters)", maxReleaseDateLen)
	}

	f.Images = cleanStrings(f.Images, false)
	if len(f.Images) > maxImages {
		return apperr.Validation("too many images (max %d)", maxImages)
	}
	f.Tags = cleanStrings(f.Tags, true)
	if len(f.Tags) > maxTags {
		return apperr.Validation("too many tags (max %d)", maxTags)
	}
	for _, tag := range f.Tags {
		if utf8.RuneCountInString(tag) > maxTagLen {
			return apperr.Validation("tag %q is too long (max %d characters)", tag, maxTagLen)
		}
	}
	f.SeriesIDs = uniqueIDs(f.SeriesIDs)
	f.CharacterIDs = uniqueIDs(f.CharacterIDs)
	return nil
}

// cleanStrings trims values and drops blanks. With dedupe, repeats are
// dropped too, keeping first occurrence order.
func cleanStrings(in []string, dedupe bool) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || (dedupe && seen[v]) {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func uniqueIDs(in []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(in))
	seen := make(map[uuid.UUID]bool, len(in))
	for _, id := range in {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
