// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's permission level. Guests have no role; they are
// represented by a nil *Viewer.
type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperadmin Role = "SUPERADMIN"
)

// Valid reports whether r is one of the assignable roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// IsAdmin reports whether r carries moderation rights.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

// User represents a registered collector or staff member.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	TOTPSecret   *string   `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool      `json:"totp_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user has the admin or superadmin role.
func (u *User) IsAdmin() bool {
	return u.Role.IsAdmin()
}

// Needs2FA returns true if login must be completed with a TOTP code.
func (u *User) Needs2FA() bool {
	return u.TOTPEnabled && u.TOTPSecret != nil
}

// Viewer is the resolved identity of the caller of a request. A nil
// *Viewer is an anonymous guest; all methods are safe on nil.
type Viewer struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

// Authenticated reports whether an identity is present.
func (v *Viewer) Authenticated() bool {
	return v != nil
}

// IsAdmin reports whether the viewer is an admin or superadmin.
func (v *Viewer) IsAdmin() bool {
	return v != nil && v.Role.IsAdmin()
}

// IsSuperadmin reports whether the viewer is a superadmin.
func (v *Viewer) IsSuperadmin() bool {
	return v != nil && v.Role == RoleSuperadmin
}

// CanManage reports whether the viewer may mutate a row owned by ownerID:
// the owner themselves or any admin.
func (v *Viewer) CanManage(ownerID uuid.UUID) bool {
	return v != nil && (v.ID == ownerID || v.IsAdmin())
}
