// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package users handles registration and account administration. Roles
// change only through a SUPERADMIN edit of another user's account.
package users

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"figdex/internal/apperr"
	"figdex/internal/models"
)

// Field limits.
const (
	minPasswordLen    = 8
	maxPasswordLen    = 72 // bcrypt ignores anything past 72 bytes
	maxDisplayNameLen = 100
)

// Repository persists user accounts.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, email, password, displayName string, role models.Role) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
}

// RegisterInput is a self-service sign-up.
type RegisterInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
}

// UpdatePatch is a partial account edit.
type UpdatePatch struct {
	DisplayName models.Field[string]      `json:"display_name"`
	Role        models.Field[models.Role] `json:"role"`
}

// Service administers user accounts.
type Service struct {
	repo Repository
}

// NewService creates a user service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a USER account. Duplicate emails conflict.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, apperr.Validation("invalid email address")
	}
	if len(in.Password) < minPasswordLen || len(in.Password) > maxPasswordLen {
		return nil, apperr.Validation("password must be %d to %d characters", minPasswordLen, maxPasswordLen)
	}
	name, err := displayName(in.DisplayName)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.Create(ctx, email, in.Password, name, models.RoleUser)
	if err != nil {
		return nil, err
	}
	slog.Info("user registered", "user", u.ID, "email", u.Email)
	return u, nil
}

// Get returns an account. Users may read their own; admins any.
func (s *Service) Get(ctx context.Context, viewer *models.Viewer, id uuid.UUID) (*models.User, error) {
	if !viewer.Authenticated() {
		return nil, apperr.Unauthenticated("sign in required")
	}
	if !viewer.CanManage(id) {
		return nil, apperr.Forbidden("cannot view another user's account")
	}
	return s.find(ctx, id)
}

// List returns every account. Admin only.
func (s *Service) List(ctx context.Context, viewer *models.Viewer) ([]models.User, error) {
	if !viewer.Authenticated() {
		return nil, apperr.Unauthenticated("sign in required")
	}
	if !viewer.IsAdmin() {
		return nil, apperr.Forbidden("admin role required")
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// Update edits an account. The display name is editable by its owner or an
// admin. The role is editable only by a SUPERADMIN, and never on their own
// account.
func (s *Service) Update(ctx context.Context, viewer *models.Viewer, id uuid.UUID, patch UpdatePatch) (*models.User, error) {
	if !viewer.Authenticated() {
		return nil, apperr.Unauthenticated("sign in required")
	}
	if !viewer.CanManage(id) {
		return nil, apperr.Forbidden("cannot edit another user's account")
	}
	if patch.DisplayName.Set && patch.DisplayName.Null {
		return nil, apperr.Validation("display name cannot be cleared")
	}
	if patch.Role.Set && (patch.Role.Null || !patch.Role.Value.Valid()) {
		return nil, apperr.Validation("invalid role %q", patch.Role.Value)
	}

	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Role.Present() && patch.Role.Value != u.Role {
		if viewer.ID == id {
			return nil, apperr.Forbidden("cannot change your own role")
		}
		if !viewer.IsSuperadmin() {
			return nil, apperr.Forbidden("only a superadmin can change roles")
		}
		slog.Info("user role changed", "user", id, "from", u.Role, "to", patch.Role.Value, "by", viewer.ID)
		u.Role = patch.Role.Value
	}
	if patch.DisplayName.Present() {
		name, err := displayName(patch.DisplayName.Value)
		if err != nil {
			return nil, err
		}
		u.DisplayName = name
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user %s", id)
	}
	return u, nil
}

func displayName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apperr.Validation("display name is required")
	}
	if utf8.RuneCountInString(name) > maxDisplayNameLen {
		return "", apperr.Validation("display name must be at most %d characters", maxDisplayNameLen)
	}
	return name, nil
}
