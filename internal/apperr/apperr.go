// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package apperr defines the failure kinds shared by the moderation, ledger
// and review services. Services wrap these sentinels with context using %w;
// transport code matches them with errors.Is and maps each to one status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthenticated means no identity was present where one is required.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means the identity lacks the role or ownership needed.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound means a referenced entity or row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a uniqueness invariant would be violated.
	ErrConflict = errors.New("conflict")
	// ErrValidation means the input was malformed or out of range.
	ErrValidation = errors.New("validation failed")
)

// Unauthenticated returns an ErrUnauthenticated wrapped with a message.
func Unauthenticated(format string, args ...any) error {
	return wrap(ErrUnauthenticated, format, args...)
}

// Forbidden returns an ErrForbidden wrapped with a message.
func Forbidden(format string, args ...any) error {
	return wrap(ErrForbidden, format, args...)
}

// NotFound returns an ErrNotFound wrapped with a message.
func NotFound(format string, args ...any) error {
	return wrap(ErrNotFound, format, args...)
}

// Conflict returns an ErrConflict wrapped with a message.
func Conflict(format string, args ...any) error {
	return wrap(ErrConflict, format, args...)
}

// Validation returns an ErrValidation wrapped with a message.
func Validation(format string, args ...any) error {
	return wrap(ErrValidation, format, args...)
}

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), kind)
}

// HTTPStatus maps an error to the status code a handler should send.
// Errors outside the taxonomy are internal failures.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-safe text for err. Internal failures are
// reduced to a generic message so driver details never leak.
func Message(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
