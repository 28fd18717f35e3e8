// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"figdex/internal/apperr"
	"figdex/internal/models"
	"figdex/internal/session"
)

// totpIssuer labels FigDex entries in authenticator apps.
const totpIssuer = "FigDex"

// Accounts is the user persistence the auth flow needs.
type Accounts interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CheckPassword(user *models.User, password string) bool
	SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error
	EnableTOTP(ctx context.Context, userID uuid.UUID) error
}

// Sessions is the cookie session store.
type Sessions interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
	Get(ctx context.Context, r *http.Request) (*session.Data, error)
	Update(ctx context.Context, r *http.Request, data *session.Data) error
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions Sessions
	tokens   *session.TokenIssuer
	accounts Accounts
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions Sessions, tokens *session.TokenIssuer, accounts Accounts) *Auth {
	return &Auth{
		sessions: sessions,
		tokens:   tokens,
		accounts: accounts,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Code     string `json:"code" validate:"omitempty,len=6,numeric"`
}

type verifyRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type loginResponse struct {
	User              *models.User `json:"user"`
	TwoFactorRequired bool         `json:"two_factor_required"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

type setupResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
	QRCodePNG  string `json:"qr_code_png"` // base64
}

// Login handles POST /api/auth/login. It opens a cookie session; users
// with TOTP enabled must finish with /api/auth/2fa/verify before the
// session carries their identity.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := a.authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	needs2FA := user.Needs2FA()
	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		TwoFADone: !needs2FA,
	})
	if err != nil {
		writeError(w, r, fmt.Errorf("create session: %w", err))
		return
	}

	slog.Info("user logged in", "user", user.ID, "two_factor_pending", needs2FA)
	writeJSON(w, http.StatusOK, loginResponse{User: user, TwoFactorRequired: needs2FA})
}

// Token handles POST /api/auth/token. It issues a bearer token for API
// clients; users with TOTP enabled must include a current code.
func (a *Auth) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := a.authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user.Needs2FA() && !totp.Validate(req.Code, *user.TOTPSecret) {
		writeError(w, r, apperr.Unauthenticated("invalid two-factor code"))
		return
	}

	token, expires, err := a.tokens.Issue(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, TokenType: "Bearer", ExpiresAt: expires})
}

// Logout handles POST /api/auth/logout.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		writeError(w, r, fmt.Errorf("destroy session: %w", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TwoFASetup handles POST /api/auth/2fa/setup. It generates a TOTP secret
// for an admin and returns it with a QR code to scan.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	_, user, err := a.sessionUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !user.IsAdmin() {
		writeError(w, r, apperr.Forbidden("two-factor authentication is available to admins"))
		return
	}
	if user.TOTPEnabled {
		writeError(w, r, apperr.Conflict("two-factor authentication is already enabled"))
		return
	}

	// Generate a new TOTP key.
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		writeError(w, r, fmt.Errorf("generate totp key: %w", err))
		return
	}

	if err := a.accounts.SetTOTPSecret(r.Context(), user.ID, key.Secret()); err != nil {
		writeError(w, r, err)
		return
	}

	// QR code as base64-encoded PNG.
	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		writeError(w, r, fmt.Errorf("encode qr code: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, setupResponse{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
		QRCodePNG:  base64.StdEncoding.EncodeToString(qrPNG),
	})
}

// TwoFAVerify handles POST /api/auth/2fa/verify. A valid code completes a
// pending login and, on first use, enables TOTP for the account.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	sess, user, err := a.sessionUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user.TOTPSecret == nil {
		writeError(w, r, apperr.Validation("two-factor authentication is not set up"))
		return
	}
	if !totp.Validate(req.Code, *user.TOTPSecret) {
		writeError(w, r, apperr.Unauthenticated("invalid two-factor code"))
		return
	}

	// First successful code after setup turns TOTP on.
	if !user.TOTPEnabled {
		if err := a.accounts.EnableTOTP(r.Context(), user.ID); err != nil {
			writeError(w, r, err)
			return
		}
		user.TOTPEnabled = true
		slog.Info("two-factor enabled", "user", user.ID)
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		writeError(w, r, fmt.Errorf("update session: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{User: user})
}

// authenticate checks an email and password pair. Unknown emails and wrong
// passwords fail identically.
func (a *Auth) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := a.accounts.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if user == nil || !a.accounts.CheckPassword(user, password) {
		return nil, apperr.Unauthenticated("invalid email or password")
	}
	return user, nil
}

// sessionUser loads the raw cookie session, including one still waiting
// on its second factor, and the user behind it.
func (a *Auth) sessionUser(r *http.Request) (*session.Data, *models.User, error) {
	sess, err := a.sessions.Get(r.Context(), r)
	if err != nil {
		return nil, nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return nil, nil, apperr.Unauthenticated("sign in first")
	}
	user, err := a.accounts.FindByID(r.Context(), sess.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, apperr.Unauthenticated("account no longer exists")
	}
	return sess, user, nil
}
