// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package moderation implements the lifecycle of the five moderated catalog
// kinds. One service covers figures, brands, lines, series and characters:
// entities start PENDING unless an admin creates them, only admins approve,
// edit or delete them, and visibility is resolved per request.
package moderation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"figdex/internal/apperr"
	"figdex/internal/models"
	"figdex/internal/visibility"
)

// Repository persists catalog entities of every kind.
type Repository interface {
	List(ctx context.Context, kind models.Kind, filter visibility.Filter, q models.EntityQuery) ([]models.Entity, error)
	Get(ctx context.Context, kind models.Kind, id uuid.UUID) (*models.Entity, error)
	Exists(ctx context.Context, kind models.Kind, id uuid.UUID) (bool, error)
	SlugTaken(ctx context.Context, kind models.Kind, slug string, exceptID uuid.UUID) (bool, error)
	Create(ctx context.Context, e *models.Entity) error
	Update(ctx context.Context, e *models.Entity) error
	SetStatus(ctx context.Context, kind models.Kind, id uuid.UUID, status models.Status, approvedByID *uuid.UUID, approvedAt *time.Time) (bool, error)
	Delete(ctx context.Context, kind models.Kind, id uuid.UUID) (bool, error)
}

// Flags reads the global SHOW_PENDING_FIGURES switch.
type Flags interface {
	ShowPendingFigures(ctx context.Context) bool
}

// Transactor runs fn inside a database transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service is the moderation state machine.
type Service struct {
	repo  Repository
	flags Flags
	tx    Transactor
	now   func() time.Time
}

// NewService creates a moderation service.
func NewService(repo Repository, flags Flags, tx Transactor) *Service {
	return &Service{repo: repo, flags: flags, tx: tx, now: time.Now}
}

// List returns the entities of kind visible to viewer.
func (s *Service) List(ctx context.Context, viewer *models.Viewer, kind models.Kind, scope visibility.Scope, q models.EntityQuery) ([]models.Entity, error) {
	if !kind.Valid() {
		return nil, apperr.Validation("unknown kind %q", kind)
	}
	filter := s.filterFor(ctx, viewer, kind, scope)
	items, err := s.repo.List(ctx, kind, filter, q.Normalize())
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Entity{}
	}
	return items, nil
}

// Get returns one entity. Rows the viewer may not see read as not found;
// admins always see every status.
func (s *Service) Get(ctx context.Context, viewer *models.Viewer, kind models.Kind, id uuid.UUID) (*models.Entity, error) {
	if !kind.Valid() {
		return nil, apperr.Validation("unknown kind %q", kind)
	}
	e, err := s.repo.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if e == nil || !s.filterFor(ctx, viewer, kind, visibility.ScopeAll).Allows(e) {
		return nil, apperr.NotFound("%s %s", kind, id)
	}
	return e, nil
}

// filterFor resolves visibility, reading the global flag only when it can
// change the outcome.
func (s *Service) filterFor(ctx context.Context, viewer *models.Viewer, kind models.Kind, scope visibility.Scope) visibility.Filter {
	showPending := false
	if kind == models.KindFigure && !(scope == visibility.ScopeAll && viewer.IsAdmin()) {
		showPending = s.flags.ShowPendingFigures(ctx)
	}
	return visibility.Resolve(viewer, kind, scope, showPending)
}

// Create adds a catalog entity. Admin submissions are approved immediately
// and, for figures, stamped with the approving admin.
func (s *Service) Create(ctx context.Context, actor *models.Viewer, kind models.Kind, in EntityInput) (*models.Entity, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthenticated("sign in to submit a %s", kind)
	}
	e, err := newEntity(kind, in)
	if err != nil {
		return nil, err
	}

	e.CreatedByID = actor.ID
	e.Status = models.StatusPending
	if actor.IsAdmin() {
		e.Status = models.StatusApproved
		if kind == models.KindFigure {
			now := s.now()
			approver := actor.ID
			e.ApprovedByID = &approver
			e.ApprovedAt = &now
		}
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.checkReferences(ctx, e); err != nil {
			return err
		}
		if err := s.checkSlug(ctx, e, uuid.Nil); err != nil {
			return err
		}
		return s.repo.Create(ctx, e)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("entity created", "kind", kind, "id", e.ID, "status", e.Status, "by", actor.ID)
	return e, nil
}

// SetApproval moves an entity between PENDING and APPROVED. For figures the
// approval stamp is set on approval and cleared on demotion.
func (s *Service) SetApproval(ctx context.Context, actor *models.Viewer, kind models.Kind, id uuid.UUID, approved bool) (*models.Entity, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, apperr.Validation("unknown kind %q", kind)
	}

	status := models.StatusPending
	var approvedBy *uuid.UUID
	var approvedAt *time.Time
	if approved {
		status = models.StatusApproved
		if kind == models.KindFigure {
			by, at := actor.ID, s.now()
			approvedBy, approvedAt = &by, &at
		}
	}

	var e *models.Entity
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		found, err := s.repo.SetStatus(ctx, kind, id, status, approvedBy, approvedAt)
		if err != nil {
			return err
		}
		if !found {
			return apperr.NotFound("%s %s", kind, id)
		}
		e, err = s.repo.Get(ctx, kind, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("entity moderated", "kind", kind, "id", id, "status", status, "by", actor.ID)
	return e, nil
}

// Update applies a partial update. A rename recomputes the slug and fails
// as a whole if the new slug is taken.
func (s *Service) Update(ctx context.Context, actor *models.Viewer, kind models.Kind, id uuid.UUID, patch EntityPatch) (*models.Entity, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, apperr.Validation("unknown kind %q", kind)
	}

	var e *models.Entity
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		e, err = s.repo.Get(ctx, kind, id)
		if err != nil {
			return err
		}
		if e == nil {
			return apperr.NotFound("%s %s", kind, id)
		}

		oldSlug := e.Slug
		if err := applyPatch(e, patch); err != nil {
			return err
		}
		if e.Slug != oldSlug {
			if err := s.checkSlug(ctx, e, e.ID); err != nil {
				return err
			}
		}
		if err := s.checkReferences(ctx, e); err != nil {
			return err
		}
		return s.repo.Update(ctx, e)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("entity updated", "kind", kind, "id", id, "by", actor.ID)
	return e, nil
}

// Delete removes an entity and everything that depends on it.
func (s *Service) Delete(ctx context.Context, actor *models.Viewer, kind models.Kind, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if !kind.Valid() {
		return apperr.Validation("unknown kind %q", kind)
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		found, err := s.repo.Delete(ctx, kind, id)
		if err != nil {
			return err
		}
		if !found {
			return apperr.NotFound("%s %s", kind, id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("entity deleted", "kind", kind, "id", id, "by", actor.ID)
	return nil
}

func requireAdmin(actor *models.Viewer) error {
	if !actor.Authenticated() {
		return apperr.Unauthenticated("sign in required")
	}
	if !actor.IsAdmin() {
		return apperr.Forbidden("admin role required")
	}
	return nil
}

func (s *Service) checkSlug(ctx context.Context, e *models.Entity, exceptID uuid.UUID) error {
	taken, err := s.repo.SlugTaken(ctx, e.Kind, e.Slug, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Conflict("%s with slug %q already exists", e.Kind, e.Slug)
	}
	return nil
}

// checkReferences verifies that every entity e points at exists, whatever
// its moderation status.
func (s *Service) checkReferences(ctx context.Context, e *models.Entity) error {
	type ref struct {
		kind models.Kind
		id   uuid.UUID
	}
	var refs []ref
	if parent, ok := e.Kind.ParentKind(); ok && e.ParentID != nil {
		refs = append(refs, ref{parent, *e.ParentID})
	}
	if f := e.Figure; f != nil {
		if f.BrandID != nil {
			refs = append(refs, ref{models.KindBrand, *f.BrandID})
		}
		if f.LineID != nil {
			refs = append(refs, ref{models.KindLine, *f.LineID})
		}
		for _, id := range f.SeriesIDs {
			refs = append(refs, ref{models.KindSeries, id})
		}
		for _, id := range f.CharacterIDs {
			refs = append(refs, ref{models.KindCharacter, id})
		}
	}

	for _, r := range refs {
		ok, err := s.repo.Exists(ctx, r.kind, r.id)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("%s %s", r.kind, r.id)
		}
	}
	return nil
}
