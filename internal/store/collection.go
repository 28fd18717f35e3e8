// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"figdex/internal/apperr"
	"figdex/internal/database"
	"figdex/internal/models"
)

const collectionColumns = `id, user_id, figure_id, status, user_price, preorder_month, created_at, updated_at`

// CollectionStore handles collection ledger rows.
type CollectionStore struct {
	db *sql.DB
}

// NewCollectionStore creates a new CollectionStore with the given database connection.
func NewCollectionStore(db *sql.DB) *CollectionStore {
	return &CollectionStore{db: db}
}

func scanCollectionEntry(row rowScanner) (*models.CollectionEntry, error) {
	e := &models.CollectionEntry{}
	err := row.Scan(
		&e.ID, &e.UserID, &e.FigureID, &e.Status, &e.UserPrice,
		&e.PreorderMonth, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// FindByID retrieves an entry by its UUID. Returns nil if not found.
func (s *CollectionStore) FindByID(ctx context.Context, id uuid.UUID) (*models.CollectionEntry, error) {
	e, err := scanCollectionEntry(database.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+collectionColumns+` FROM collection_entries WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find collection entry: %w", err)
	}
	return e, nil
}

// FindByUserFigure retrieves the entry for a (user, figure) pair. Returns nil
// if the figure is not tracked.
func (s *CollectionStore) FindByUserFigure(ctx context.Context, userID, figureID uuid.UUID) (*models.CollectionEntry, error) {
	e, err := scanCollectionEntry(database.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+collectionColumns+` FROM collection_entries WHERE user_id = $1 AND figure_id = $2`,
		userID, figureID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find collection entry by figure: %w", err)
	}
	return e, nil
}

// Create inserts a new entry. A second entry for the same (user, figure)
// pair fails with apperr.ErrConflict from the unique index.
func (s *CollectionStore) Create(ctx context.Context, e *models.CollectionEntry) error {
	err := database.Conn(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO collection_entries (user_id, figure_id, status, user_price, preorder_month)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, e.UserID, e.FigureID, e.Status, e.UserPrice, e.PreorderMonth).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return apperr.Conflict("figure %s is already in the collection", e.FigureID)
	}
	if err != nil {
		return fmt.Errorf("create collection entry: %w", err)
	}
	return nil
}

// Update writes the mutable fields of e.
func (s *CollectionStore) Update(ctx context.Context, e *models.CollectionEntry) error {
	err := database.Conn(ctx, s.db).QueryRowContext(ctx, `
		UPDATE collection_entries
		SET status = $2, user_price = $3, preorder_month = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, e.ID, e.Status, e.UserPrice, e.PreorderMonth).Scan(&e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("collection entry %s", e.ID)
	}
	if err != nil {
		return fmt.Errorf("update collection entry: %w", err)
	}
	return nil
}

// Delete removes an entry by ID.
func (s *CollectionStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := database.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM collection_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete collection entry: %w", err)
	}
	return nil
}

// ListByUser returns a user's entries with their figure summaries, newest
// first. A nil status returns every entry.
func (s *CollectionStore) ListByUser(ctx context.Context, userID uuid.UUID, status *models.CollectionStatus) ([]models.CollectionEntry, error) {
	query := `
		SELECT c.id, c.user_id, c.figure_id, c.status, c.user_price, c.preorder_month, c.created_at, c.updated_at,
		       f.id, f.name, f.slug, f.status, f.price_mxn, f.release_date
		FROM collection_entries c
		JOIN figures f ON f.id = c.figure_id
		WHERE c.user_id = $1`
	args := []any{userID}
	if status != nil {
		query += ` AND c.status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY c.created_at DESC, c.id`

	rows, err := database.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list collection: %w", err)
	}
	defer rows.Close()

	var entries []models.CollectionEntry
	for rows.Next() {
		var e models.CollectionEntry
		f := &models.FigureSummary{}
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.FigureID, &e.Status, &e.UserPrice, &e.PreorderMonth, &e.CreatedAt, &e.UpdatedAt,
			&f.ID, &f.Name, &f.Slug, &f.Status, &f.PriceMXN, &f.ReleaseDate,
		); err != nil {
			return nil, fmt.Errorf("scan collection entry: %w", err)
		}
		e.Figure = f
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
