// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package visibility decides which moderation states of catalog entities a
// viewer may see. Resolution is pure: callers supply the global
// SHOW_PENDING_FIGURES flag they read for the current request.
package visibility

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"figdex/internal/models"
)

// Scope is the requested listing scope.
type Scope string

const (
	// ScopeDefault applies normal status filtering.
	ScopeDefault Scope = ""
	// ScopeAll asks for every status. Only honored for admins.
	ScopeAll Scope = "all"
)

// ParseScope reads a scope query value. Anything other than "all" is the
// default scope.
func ParseScope(s string) Scope {
	if strings.EqualFold(strings.TrimSpace(s), string(ScopeAll)) {
		return ScopeAll
	}
	return ScopeDefault
}

// Filter is a resolved status filter. The zero value shows approved rows only.
type Filter struct {
	// Unrestricted makes every status visible.
	Unrestricted bool
	// OwnerID additionally exposes pending rows created by this user.
	OwnerID *uuid.UUID
}

// Resolve computes the filter for a viewer listing entities of kind.
func Resolve(viewer *models.Viewer, kind models.Kind, scope Scope, showPendingFigures bool) Filter {
	if scope == ScopeAll && viewer.IsAdmin() {
		return Filter{Unrestricted: true}
	}

	// Figures alone honor the global override, for every viewer.
	if kind == models.KindFigure && showPendingFigures {
		return Filter{Unrestricted: true}
	}

	if viewer.Authenticated() {
		id := viewer.ID
		return Filter{OwnerID: &id}
	}

	return Filter{}
}

// Allows reports whether e passes the filter. It mirrors the SQL predicate
// for single-row reads.
func (f Filter) Allows(e *models.Entity) bool {
	if f.Unrestricted || e.Status == models.StatusApproved {
		return true
	}
	return f.OwnerID != nil && e.Status == models.StatusPending && e.CreatedByID == *f.OwnerID
}

// SQL renders the filter as a single WHERE predicate over columns of alias
// (which may be empty). Placeholders start at $nextArg; the returned args
// fill them in order.
func (f Filter) SQL(alias string, nextArg int) (string, []any) {
	col := func(name string) string {
		if alias == "" {
			return name
		}
		return alias + "." + name
	}

	if f.Unrestricted {
		return "TRUE", nil
	}
	if f.OwnerID == nil {
		return fmt.Sprintf("%s = $%d", col("status"), nextArg), []any{string(models.StatusApproved)}
	}
	clause := fmt.Sprintf("(%s = $%d OR (%s = $%d AND %s = $%d))",
		col("status"), nextArg,
		col("status"), nextArg+1,
		col("created_by_id"), nextArg+2,
	)
	return clause, []any{string(models.StatusApproved), string(models.StatusPending), *f.OwnerID}
}
