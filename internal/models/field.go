// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "encoding/json"

// Field is a tri-state value for partial updates. The zero value means the
// field was absent and must be left untouched; Null means an explicit JSON
// null that clears the field; otherwise Value overwrites.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a Field carrying v.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Null returns a Field that clears its target.
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// UnmarshalJSON is only invoked for keys present in the document, which is
// what distinguishes an absent field from an explicit null.
func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if string(b) == "null" {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(b, &f.Value)
}

// Present reports whether the field carries a non-null value.
func (f Field[T]) Present() bool {
	return f.Set && !f.Null
}

// Apply writes the field into a value target: absent keeps, null resets to
// the zero value, otherwise overwrites.
func (f Field[T]) Apply(dst *T) {
	if !f.Set {
		return
	}
	if f.Null {
		var zero T
		*dst = zero
		return
	}
	*dst = f.Value
}

// ApplyPtr writes the field into a nullable target: absent keeps, null sets
// nil, otherwise points at a copy of the value.
func (f Field[T]) ApplyPtr(dst **T) {
	if !f.Set {
		return
	}
	if f.Null {
		*dst = nil
		return
	}
	v := f.Value
	*dst = &v
}
