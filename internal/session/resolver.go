// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"figdex/internal/models"
)

// SessionReader loads the cookie session attached to a request, returning
// nil when there is none.
type SessionReader interface {
	Get(ctx context.Context, r *http.Request) (*Data, error)
}

// UserLookup fetches a user by ID, returning nil when the user is gone.
type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Resolver turns request credentials into a *models.Viewer. A bearer token
// takes precedence over the session cookie. Missing, invalid, or expired
// credentials resolve to a nil viewer (guest); only lookup failures are
// returned as errors.
type Resolver struct {
	sessions SessionReader
	tokens   *TokenIssuer
	users    UserLookup
}

// NewResolver creates a Resolver. sessions or tokens may be nil to disable
// that credential type.
func NewResolver(sessions SessionReader, tokens *TokenIssuer, users UserLookup) *Resolver {
	return &Resolver{sessions: sessions, tokens: tokens, users: users}
}

// Resolve returns the viewer for r, or nil for a guest.
func (res *Resolver) Resolve(ctx context.Context, r *http.Request) (*models.Viewer, error) {
	if raw, ok := BearerToken(r); ok {
		if res.tokens == nil {
			return nil, nil
		}
		userID, err := res.tokens.Parse(raw)
		if err != nil {
			slog.Debug("bearer token rejected", "error", err)
			return nil, nil
		}
		return res.viewerFor(ctx, userID)
	}

	if res.sessions == nil {
		return nil, nil
	}
	data, err := res.sessions.Get(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if data == nil || !data.TwoFADone {
		// A session still waiting on its second factor is not an identity.
		return nil, nil
	}
	return res.viewerFor(ctx, data.UserID)
}

func (res *Resolver) viewerFor(ctx context.Context, userID uuid.UUID) (*models.Viewer, error) {
	user, err := res.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	if user == nil {
		return nil, nil
	}
	return &models.Viewer{ID: user.ID, Role: user.Role}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}
