// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package review gates figure reviews behind ownership: a collector may
// review a figure once, and only after marking it OWNED.
package review

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"figdex/internal/apperr"
	"figdex/internal/markdown"
	"figdex/internal/models"
)

// Field limits.
const (
	maxTitleLen       = 200
	maxDescriptionLen = 5000
)

// Repository persists reviews.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	Exists(ctx context.Context, userID, figureID uuid.UUID) (bool, error)
	Create(ctx context.Context, r *models.Review) error
	Update(ctx context.Context, r *models.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByFigure(ctx context.Context, figureID uuid.UUID) ([]models.Review, error)
	Rating(ctx context.Context, figureID uuid.UUID) (*models.FigureRating, error)
}

// Ledger answers whether a user tracks a figure.
type Ledger interface {
	FindByUserFigure(ctx context.Context, userID, figureID uuid.UUID) (*models.CollectionEntry, error)
}

// Figures looks up a figure regardless of its moderation status.
type Figures interface {
	FigureSummary(ctx context.Context, id uuid.UUID) (*models.FigureSummary, error)
}

// Catalog resolves a figure the way the viewer is allowed to see it.
type Catalog interface {
	Get(ctx context.Context, viewer *models.Viewer, kind models.Kind, id uuid.UUID) (*models.Entity, error)
}

// Transactor runs fn inside a database transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CreateInput is the body of a new review.
type CreateInput struct {
	Rating      int      `json:"rating"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
}

// UpdatePatch is a partial review update. Rating and title cannot be
// cleared; a null description or image list empties it.
type UpdatePatch struct {
	Rating      models.Field[int]      `json:"rating"`
	Title       models.Field[string]   `json:"title"`
	Description models.Field[string]   `json:"description"`
	Images      models.Field[[]string] `json:"images"`
}

// Service is the review gate.
type Service struct {
	repo    Repository
	ledger  Ledger
	figures Figures
	catalog Catalog
	tx      Transactor
}

// NewService creates a review service.
func NewService(repo Repository, ledger Ledger, figures Figures, catalog Catalog, tx Transactor) *Service {
	return &Service{repo: repo, ledger: ledger, figures: figures, catalog: catalog, tx: tx}
}

// Create posts the viewer's review of a figure they own.
func (s *Service) Create(ctx context.Context, viewer *models.Viewer, figureID uuid.UUID, in CreateInput) (*models.Review, error) {
	if !viewer.Authenticated() {
		return nil, apperr.Unauthenticated("sign in to review figures")
	}
	r := &models.Review{
		UserID:      viewer.ID,
		FigureID:    figureID,
		Rating:      in.Rating,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Images:      cleanImages(in.Images),
	}
	if err := validate(r); err != nil {
		return nil, err
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		fig, err := s.figures.FigureSummary(ctx, figureID)
		if err != nil {
			return err
		}
		if fig == nil {
			return apperr.NotFound("figure %s", figureID)
		}

		entry, err := s.ledger.FindByUserFigure(ctx, viewer.ID, figureID)
		if err != nil {
			return err
		}
		if entry == nil || entry.Status != models.CollectionOwned {
			return apperr.Forbidden("only owners can review a figure")
		}

		exists, err := s.repo.Exists(ctx, viewer.ID, figureID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("figure %s already reviewed", figureID)
		}
		return s.repo.Create(ctx, r)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("review created", "review", r.ID, "figure", figureID, "user", viewer.ID)
	renderDescription(r)
	return r, nil
}

// Update edits a review. Only the author or an admin may do so.
func (s *Service) Update(ctx context.Context, viewer *models.Viewer, id uuid.UUID, patch UpdatePatch) (*models.Review, error) {
	if !viewer.Authenticated() {
		return nil, apperr.Unauthenticated("sign in to edit reviews")
	}
	if patch.Rating.Set && patch.Rating.Null {
		return nil, apperr.Validation("rating cannot be cleared")
	}
	if patch.Title.Set && patch.Title.Null {
		return nil, apperr.Validation("title cannot be cleared")
	}

	var r *models.Review
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		r, err = s.editable(ctx, viewer, id)
		if err != nil {
			return err
		}

		patch.Rating.Apply(&r.Rating)
		patch.Title.Apply(&r.Title)
		patch.Description.Apply(&r.Description)
		patch.Images.Apply(&r.Images)
		r.Title = strings.TrimSpace(r.Title)
		r.Description = strings.TrimSpace(r.Description)
		r.Images = cleanImages(r.Images)

		if err := validate(r); err != nil {
			return err
		}
		return s.repo.Update(ctx, r)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("review updated", "review", id, "by", viewer.ID)
	renderDescription(r)
	return r, nil
}

// Delete removes a review. Only the author or an admin may do so.
func (s *Service) Delete(ctx context.Context, viewer *models.Viewer, id uuid.UUID) error {
	if !viewer.Authenticated() {
		return apperr.Unauthenticated("sign in to delete reviews")
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.editable(ctx, viewer, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	slog.Info("review deleted", "review", id, "by", viewer.ID)
	return nil
}

// ListForFigure returns a figure's reviews, newest first. Figures the
// viewer cannot see read as not found.
func (s *Service) ListForFigure(ctx context.Context, viewer *models.Viewer, figureID uuid.UUID) ([]models.Review, error) {
	if err := s.requireVisible(ctx, viewer, figureID); err != nil {
		return nil, err
	}
	reviews, err := s.repo.ListByFigure(ctx, figureID)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	for i := range reviews {
		renderDescription(&reviews[i])
	}
	return reviews, nil
}

// FigureRating returns the mean rating of a figure. The average is nil
// when nobody has reviewed it.
func (s *Service) FigureRating(ctx context.Context, viewer *models.Viewer, figureID uuid.UUID) (*models.FigureRating, error) {
	if err := s.requireVisible(ctx, viewer, figureID); err != nil {
		return nil, err
	}
	return s.repo.Rating(ctx, figureID)
}

// renderDescription fills DescriptionHTML. A render failure leaves it
// empty; the Markdown source is still returned.
func renderDescription(r *models.Review) {
	html, err := markdown.ToHTML(r.Description)
	if err != nil {
		slog.Warn("render review description failed", "review", r.ID, "error", err)
		return
	}
	r.DescriptionHTML = html
}

func (s *Service) requireVisible(ctx context.Context, viewer *models.Viewer, figureID uuid.UUID) error {
	_, err := s.catalog.Get(ctx, viewer, models.KindFigure, figureID)
	return err
}

func (s *Service) editable(ctx context.Context, viewer *models.Viewer, id uuid.UUID) (*models.Review, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperr.NotFound("review %s", id)
	}
	if !viewer.CanManage(r.UserID) {
		return nil, apperr.Forbidden("review belongs to another user")
	}
	return r, nil
}

func validate(r *models.Review) error {
	if r.Rating < models.MinRating || r.Rating > models.MaxRating {
		return apperr.Validation("rating must be between %d and %d", models.MinRating, models.MaxRating)
	}
	if r.Title == "" {
		return apperr.Validation("title is required")
	}
	if utf8.RuneCountInString(r.Title) > maxTitleLen {
		return apperr.Validation("title must be at most %d characters", maxTitleLen)
	}
	if utf8.RuneCountInString(r.Description) > maxDescriptionLen {
		return apperr.Validation("description must be at most %d characters", maxDescriptionLen)
	}
	return nil
}

// cleanImages drops blank URLs and keeps at most MaxReviewImages.
func cleanImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		img = strings.TrimSpace(img)
		if img == "" {
			continue
		}
		out = append(out, img)
		if len(out) == models.MaxReviewImages {
			break
		}
	}
	return out
}
