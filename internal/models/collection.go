// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// CollectionStatus is the state of a user's tracking record for one figure.
type CollectionStatus string

const (
	CollectionWishlist CollectionStatus = "WISHLIST"
	CollectionPreorder CollectionStatus = "PREORDER"
	CollectionOwned    CollectionStatus = "OWNED"
)

// Valid reports whether s is one of the three tracking states.
func (s CollectionStatus) Valid() bool {
	switch s {
	case CollectionWishlist, CollectionPreorder, CollectionOwned:
		return true
	}
	return false
}

// CollectionEntry is one row of the collection ledger. At most one entry
// exists per (UserID, FigureID).
type CollectionEntry struct {
	ID            uuid.UUID        `json:"id"`
	UserID        uuid.UUID        `json:"user_id"`
	FigureID      uuid.UUID        `json:"figure_id"`
	Status        CollectionStatus `json:"status"`
	UserPrice     *Money           `json:"user_price"`
	PreorderMonth *string          `json:"preorder_month"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`

	// Populated by listing queries that join the figure.
	Figure *FigureSummary `json:"figure,omitempty"`
}
