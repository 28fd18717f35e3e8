// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package collection implements the per-user collection ledger: one entry
// per (user, figure) moving between WISHLIST, PREORDER and OWNED, plus the
// preorder calendar aggregate.
package collection

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"figdex/internal/apperr"
	"figdex/internal/models"
)

// maxPreorderMonthLen bounds the free-form preorder month label.
const maxPreorderMonthLen = 20

// Repository persists collection entries.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.CollectionEntry, error)
	FindByUserFigure(ctx context.Context, userID, figureID uuid.UUID) (*models.CollectionEntry, error)
	Create(ctx context.Context, e *models.CollectionEntry) error
	Update(ctx context.Context, e *models.CollectionEntry) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, status *models.CollectionStatus) ([]models.CollectionEntry, error)
}

// Figures looks up a figure regardless of its moderation status. It
// returns nil when the figure does not exist.
type Figures interface {
	FigureSummary(ctx context.Context, id uuid.UUID) (*models.FigureSummary, error)
}

// Transactor runs fn inside a database transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TrackInput starts tracking a figure.
type TrackInput struct {
	FigureID      uuid.UUID               `json:"figure_id" validate:"required"`
	Status        models.CollectionStatus `json:"status" validate:"required,oneof=WISHLIST PREORDER OWNED"`
	UserPrice     *models.Money           `json:"user_price"`
	PreorderMonth *string                 `json:"preorder_month" validate:"omitempty,max=20"`
}

// RetargetPatch is a partial update of an entry. Status cannot be cleared.
type RetargetPatch struct {
	Status        models.Field[models.CollectionStatus] `json:"status"`
	UserPrice     models.Field[models.Money]            `json:"user_price"`
	PreorderMonth models.Field[string]                  `json:"preorder_month"`
}

// Service is the collection ledger.
type Service struct {
	repo    Repository
	figures Figures
	tx      Transactor
}

// NewService creates a collection service.
func NewService(repo Repository, figures Figures, tx Transactor) *Service {
	return &Service{repo: repo, figures: figures, tx: tx}
}

// Track adds a figure to the viewer's collection. Tracking an already
// tracked figure is a conflict; use Retarget to change its status.
func (s *Service) Track(ctx context.Context, viewer *models.Viewer, in TrackInput) (*models.CollectionEntry, error) {
	if !viewer.Authenticated() {
		return nil, apperr.Unauthenticated("sign in to track figures")
	}
	if !in.Status.Valid() {
		return nil, apperr.Validation("invalid status %q", in.Status)
	}
	if in.UserPrice != nil && !in.UserPrice.Valid() {
		return nil, apperr.Validation("price must be between 0 and %s", models.MaxMoney)
	}
	if in.PreorderMonth != nil {
		if err := checkPreorderMonth(*in.PreorderMonth); err != nil {
			return nil, err
		}
	}

	entry := &models.CollectionEntry{
		UserID:        viewer.ID,
		FigureID:      in.FigureID,
		Status:        in.Status,
		UserPrice:     in.UserPrice,
		PreorderMonth: blankToNil(in.PreorderMonth),
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		fig, err := s.figures.FigureSummary(ctx, in.FigureID)
		if err != nil {
			return err
		}
		if fig == nil {
			return apperr.NotFound("figure %s", in.FigureID)
		}

		existing, err := s.repo.FindByUserFigure(ctx, viewer.ID, in.FigureID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.Conflict("figure %s is already in the collection", in.FigureID)
		}

		if entry.Status == models.CollectionPreorder && entry.PreorderMonth == nil {
			entry.PreorderMonth = blankToNil(fig.ReleaseDate)
		}
		if err := s.repo.Create(ctx, entry); err != nil {
			return err
		}
		entry.Figure = fig
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("figure tracked", "user", viewer.ID, "figure", in.FigureID, "status", entry.Status)
	return entry, nil
}

// Retarget changes an entry's status, price or preorder month. Only the
// owner or an admin may do so.
func (s *Service) Retarget(ctx context.Context, viewer *models.Viewer, entryID uuid.UUID, patch RetargetPatch) (*models.CollectionEntry, error) {
	if !viewer.Authenticated() {
		return nil, apperr.Unauthenticated("sign in to manage your collection")
	}
	if patch.Status.Set && (patch.Status.Null || !patch.Status.Value.Valid()) {
		return nil, apperr.Validation("invalid status %q", patch.Status.Value)
	}
	if patch.UserPrice.Present() && !patch.UserPrice.Value.Valid() {
		return nil, apperr.Validation("price must be between 0 and %s", models.MaxMoney)
	}
	if patch.PreorderMonth.Present() {
		if err := checkPreorderMonth(patch.PreorderMonth.Value); err != nil {
			return nil, err
		}
	}

	var entry *models.CollectionEntry
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		entry, err = s.owned(ctx, viewer, entryID)
		if err != nil {
			return err
		}

		patch.Status.Apply(&entry.Status)
		patch.UserPrice.ApplyPtr(&entry.UserPrice)
		patch.PreorderMonth.ApplyPtr(&entry.PreorderMonth)
		entry.PreorderMonth = blankToNil(entry.PreorderMonth)

		fig, err := s.figures.FigureSummary(ctx, entry.FigureID)
		if err != nil {
			return err
		}
		if entry.Status == models.CollectionPreorder && entry.PreorderMonth == nil && fig != nil {
			entry.PreorderMonth = blankToNil(fig.ReleaseDate)
		}
		if err := s.repo.Update(ctx, entry); err != nil {
			return err
		}
		entry.Figure = fig
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("collection entry updated", "entry", entryID, "status", entry.Status, "by", viewer.ID)
	return entry, nil
}

// Untrack deletes an entry. Only the owner or an admin may do so.
func (s *Service) Untrack(ctx context.Context, viewer *models.Viewer, entryID uuid.UUID) error {
	if !viewer.Authenticated() {
		return apperr.Unauthenticated("sign in to manage your collection")
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.owned(ctx, viewer, entryID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, entryID)
	})
	if err != nil {
		return err
	}

	slog.Info("figure untracked", "entry", entryID, "by", viewer.ID)
	return nil
}

// List returns the viewer's own entries, optionally narrowed to one status.
func (s *Service) List(ctx context.Context, viewer *models.Viewer, status *models.CollectionStatus) ([]models.CollectionEntry, error) {
	if !viewer.Authenticated() {
		return nil, apperr.Unauthenticated("sign in to view your collection")
	}
	if status != nil && !status.Valid() {
		return nil, apperr.Validation("invalid status %q", *status)
	}
	entries, err := s.repo.ListByUser(ctx, viewer.ID, status)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.CollectionEntry{}
	}
	return entries, nil
}

// Calendar aggregates the viewer's preorders by month. A non-empty
// monthFilter restricts the result to that month key.
func (s *Service) Calendar(ctx context.Context, viewer *models.Viewer, monthFilter string) (*Calendar, error) {
	if !viewer.Authenticated() {
		return nil, apperr.Unauthenticated("sign in to view your calendar")
	}
	preorder := models.CollectionPreorder
	entries, err := s.repo.ListByUser(ctx, viewer.ID, &preorder)
	if err != nil {
		return nil, err
	}
	return AggregateByMonth(entries, monthFilter), nil
}

// owned loads an entry and checks that viewer may change it.
func (s *Service) owned(ctx context.Context, viewer *models.Viewer, entryID uuid.UUID) (*models.CollectionEntry, error) {
	entry, err := s.repo.FindByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, apperr.NotFound("collection entry %s", entryID)
	}
	if !viewer.CanManage(entry.UserID) {
		return nil, apperr.Forbidden("collection entry belongs to another user")
	}
	return entry, nil
}

func checkPreorderMonth(month string) error {
	if utf8.RuneCountInString(strings.TrimSpace(month)) > maxPreorderMonthLen {
		return apperr.Validation("preorder month must be at most %d characters", maxPreorderMonthLen)
	}
	return nil
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
