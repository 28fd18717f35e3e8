// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"figdex/internal/models"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// ViewerKey is the context key for the resolved request identity.
	ViewerKey contextKey = "viewer"
)

// ViewerResolver turns request credentials into an identity. A nil viewer
// is a guest.
type ViewerResolver interface {
	Resolve(ctx context.Context, r *http.Request) (*models.Viewer, error)
}

// LoadViewer resolves the caller's identity and stores it in the request
// context. Downstream handlers read it via ViewerFromCtx(). This middleware
// does NOT enforce authentication.
func LoadViewer(resolver ViewerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer, err := resolver.Resolve(r.Context(), r)
			if err != nil {
				// Log but don't block; the request proceeds as a guest.
				slog.Error("resolve viewer failed", "error", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			if viewer != nil {
				r = r.WithContext(WithViewer(r.Context(), viewer))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects guests with 401.
// Must be applied after LoadViewer in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ViewerFromCtx(r.Context()).Authenticated() {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects guests with 401 and non-admins with 403.
// Must be applied after LoadViewer.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer := ViewerFromCtx(r.Context())
		if !viewer.Authenticated() {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !viewer.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// WithViewer returns a copy of ctx carrying viewer.
func WithViewer(ctx context.Context, viewer *models.Viewer) context.Context {
	return context.WithValue(ctx, ViewerKey, viewer)
}

// ViewerFromCtx extracts the viewer from the request context.
// Returns nil for guests.
func ViewerFromCtx(ctx context.Context) *models.Viewer {
	viewer, _ := ctx.Value(ViewerKey).(*models.Viewer)
	return viewer
}

// writeError sends a JSON error body in the same shape as the handlers.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
