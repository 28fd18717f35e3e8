// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// FigDex API. It organizes routes into public, authenticated and admin
// groups with appropriate middleware stacks.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"figdex/internal/handlers"
	"figdex/internal/middleware"
	"figdex/internal/models"
)

// Handlers bundles the handler groups mounted under /api.
type Handlers struct {
	Auth       *handlers.Auth
	Catalog    *handlers.Catalog
	Collection *handlers.Collection
	Reviews    *handlers.Reviews
	Users      *handlers.Users
	Config     *handlers.Config
}

// Options carries the wiring that is not a handler group.
type Options struct {
	// Resolver turns a cookie or bearer token into a viewer.
	Resolver middleware.ViewerResolver
	// AuthLimiter throttles credential endpoints; nil disables limiting.
	AuthLimiter *middleware.RateLimiter
	// SecureCookies marks the CSRF cookie Secure.
	SecureCookies bool
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(h Handlers, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check. No auth, no CSRF.
	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewCSRF(opts.SecureCookies))
		r.Use(middleware.LoadViewer(opts.Resolver))

		r.Route("/auth", func(r chi.Router) {
			// Credential checks are rate limited per client IP.
			r.Group(func(r chi.Router) {
				if opts.AuthLimiter != nil {
					r.Use(opts.AuthLimiter.Middleware)
				}
				r.Post("/login", h.Auth.Login)
				r.Post("/token", h.Auth.Token)
				r.Post("/register", h.Users.Register)
				r.Post("/2fa/verify", h.Auth.TwoFAVerify)
			})
			r.Post("/logout", h.Auth.Logout)
			// Setup reads the raw session so a pending login can enroll.
			r.Post("/2fa/setup", h.Auth.TwoFASetup)
		})

		for _, kind := range models.Kinds {
			r.Route("/"+kind.Path(), func(r chi.Router) {
				catalogRoutes(r, h, kind)
			})
		}

		r.Route("/reviews/{id}", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Patch("/", h.Reviews.Update)
			r.Delete("/", h.Reviews.Delete)
		})

		r.Route("/collection", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/", h.Collection.List)
			r.Post("/", h.Collection.Track)
			r.Get("/calendar", h.Collection.Calendar)
			r.Patch("/{id}", h.Collection.Retarget)
			r.Delete("/{id}", h.Collection.Untrack)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.With(middleware.RequireAdmin).Get("/", h.Users.List)
			r.Get("/{id}", h.Users.Get)
			r.Patch("/{id}", h.Users.Update)
		})

		// System configuration. Writes additionally need a superadmin,
		// which the settings service enforces.
		r.Route("/config/{key}", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/", h.Config.Get)
			r.Put("/", h.Config.Set)
		})
	})

	return r
}

// catalogRoutes mounts the moderation endpoints for one entity kind.
// Reads are public and filtered by visibility; creation needs an account.
func catalogRoutes(r chi.Router, h Handlers, kind models.Kind) {
	r.Get("/", h.Catalog.List(kind))
	r.Get("/{id}", h.Catalog.Get(kind))

	r.With(middleware.RequireAuth).Post("/", h.Catalog.Create(kind))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Post("/{id}/approval", h.Catalog.SetApproval(kind))
		r.Patch("/{id}", h.Catalog.Update(kind))
		r.Delete("/{id}", h.Catalog.Delete(kind))
	})

	if kind == models.KindFigure {
		r.Get("/{id}/reviews", h.Reviews.List)
		r.With(middleware.RequireAuth).Post("/{id}/reviews", h.Reviews.Create)
		r.Get("/{id}/rating", h.Reviews.Rating)
	}
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
