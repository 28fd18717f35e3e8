// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"figdex/internal/apperr"
	"figdex/internal/database"
	"figdex/internal/models"
)

const reviewColumns = `id, user_id, figure_id, rating, title, description, images::text, created_at, updated_at`

// ReviewStore handles figure reviews.
type ReviewStore struct {
	db *sql.DB
}

// NewReviewStore creates a new ReviewStore with the given database connection.
func NewReviewStore(db *sql.DB) *ReviewStore {
	return &ReviewStore{db: db}
}

func scanReview(row rowScanner) (*models.Review, error) {
	r := &models.Review{}
	var images string
	if err := row.Scan(
		&r.ID, &r.UserID, &r.FigureID, &r.Rating, &r.Title,
		&r.Description, &images, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(images), &r.Images); err != nil {
		return nil, fmt.Errorf("decode review images: %w", err)
	}
	if r.Images == nil {
		r.Images = []string{}
	}
	return r, nil
}

func encodeImages(images []string) (string, error) {
	if images == nil {
		images = []string{}
	}
	b, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("encode review images: %w", err)
	}
	return string(b), nil
}

// FindByID retrieves a review by its UUID. Returns nil if not found.
func (s *ReviewStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	r, err := scanReview(database.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find review: %w", err)
	}
	return r, nil
}

// Exists reports whether userID has already reviewed figureID.
func (s *ReviewStore) Exists(ctx context.Context, userID, figureID uuid.UUID) (bool, error) {
	var exists bool
	err := database.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM reviews WHERE user_id = $1 AND figure_id = $2)`,
		userID, figureID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check review exists: %w", err)
	}
	return exists, nil
}

// Create inserts a review. A second review for the same (user, figure)
// pair fails with apperr.ErrConflict from the unique index.
func (s *ReviewStore) Create(ctx context.Context, r *models.Review) error {
	images, err := encodeImages(r.Images)
	if err != nil {
		return err
	}
	err = database.Conn(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO reviews (user_id, figure_id, rating, title, description, images)
		VALUES ($1, $2, $3, $4, $5, $6::text::jsonb)
		RETURNING id, created_at, updated_at
	`, r.UserID, r.FigureID, r.Rating, r.Title, r.Description, images).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return apperr.Conflict("figure %s already reviewed", r.FigureID)
	}
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// Update writes the mutable fields of r.
func (s *ReviewStore) Update(ctx context.Context, r *models.Review) error {
	images, err := encodeImages(r.Images)
	if err != nil {
		return err
	}
	err = database.Conn(ctx, s.db).QueryRowContext(ctx, `
		UPDATE reviews
		SET rating = $2, title = $3, description = $4, images = $5::text::jsonb, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, r.ID, r.Rating, r.Title, r.Description, images).Scan(&r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("review %s", r.ID)
	}
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	return nil
}

// Delete removes a review by ID.
func (s *ReviewStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := database.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}

// ListByFigure returns a figure's reviews, newest first.
func (s *ReviewStore) ListByFigure(ctx context.Context, figureID uuid.UUID) ([]models.Review, error) {
	rows, err := database.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE figure_id = $1 ORDER BY created_at DESC, id`, figureID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, *r)
	}
	return reviews, rows.Err()
}

// Rating returns the mean rating and review count of a figure. The average
// is nil when there are no reviews.
func (s *ReviewStore) Rating(ctx context.Context, figureID uuid.UUID) (*models.FigureRating, error) {
	rating := &models.FigureRating{FigureID: figureID}
	err := database.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT AVG(rating)::float8, COUNT(*) FROM reviews WHERE figure_id = $1`, figureID,
	).Scan(&rating.Average, &rating.Count)
	if err != nil {
		return nil, fmt.Errorf("figure rating: %w", err)
	}
	return rating, nil
}
