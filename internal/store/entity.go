// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"figdex/internal/apperr"
	"figdex/internal/database"
	"figdex/internal/models"
	"figdex/internal/visibility"
)

// kindTable describes how one moderated kind is stored. All five kinds share
// the base columns; lines and characters add parent_id and figures add their
// attribute columns plus four link tables.
type kindTable struct {
	kind      models.Kind
	table     string
	hasParent bool
}

var kindTables = map[models.Kind]kindTable{
	models.KindFigure:    {kind: models.KindFigure, table: "figures"},
	models.KindBrand:     {kind: models.KindBrand, table: "brands"},
	models.KindLine:      {kind: models.KindLine, table: "lines", hasParent: true},
	models.KindSeries:    {kind: models.KindSeries, table: "series"},
	models.KindCharacter: {kind: models.KindCharacter, table: "characters", hasParent: true},
}

const entityBaseColumns = "id, name, slug, description, status, created_by_id, approved_by_id, approved_at, created_at, updated_at"

func tableFor(kind models.Kind) (kindTable, error) {
	t, ok := kindTables[kind]
	if !ok {
		return kindTable{}, fmt.Errorf("unknown entity kind %q", kind)
	}
	return t, nil
}

func (t kindTable) isFigure() bool {
	return t.kind == models.KindFigure
}

func (t kindTable) columns() string {
	cols := entityBaseColumns
	if t.hasParent {
		cols += ", parent_id"
	}
	if t.isFigure() {
		cols += ", brand_id, line_id, price_mxn, release_date"
	}
	return cols
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (t kindTable) scan(row rowScanner) (*models.Entity, error) {
	e := &models.Entity{Kind: t.kind}
	dest := []any{
		&e.ID, &e.Name, &e.Slug, &e.Description, &e.Status,
		&e.CreatedByID, &e.ApprovedByID, &e.ApprovedAt, &e.CreatedAt, &e.UpdatedAt,
	}
	if t.hasParent {
		dest = append(dest, &e.ParentID)
	}
	if t.isFigure() {
		e.Figure = &models.FigureAttrs{
			Images:       []string{},
			Tags:         []string{},
			SeriesIDs:    []uuid.UUID{},
			CharacterIDs: []uuid.UUID{},
		}
		dest = append(dest, &e.Figure.BrandID, &e.Figure.LineID, &e.Figure.PriceMXN, &e.Figure.ReleaseDate)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return e, nil
}

// EntityStore persists all five moderated catalog kinds.
type EntityStore struct {
	db *sql.DB
}

// NewEntityStore creates a new EntityStore with the given database connection.
func NewEntityStore(db *sql.DB) *EntityStore {
	return &EntityStore{db: db}
}

// List returns the entities of kind that pass filter, ordered by name.
func (s *EntityStore) List(ctx context.Context, kind models.Kind, filter visibility.Filter, q models.EntityQuery) ([]models.Entity, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	q = q.Normalize()

	pred, args := filter.SQL("", 1)
	where := []string{pred}
	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if t.isFigure() && q.BrandID != nil {
		args = append(args, *q.BrandID)
		where = append(where, fmt.Sprintf("brand_id = $%d", len(args)))
	}
	if t.isFigure() && q.LineID != nil {
		args = append(args, *q.LineID)
		where = append(where, fmt.Sprintf("line_id = $%d", len(args)))
	}
	args = append(args, q.Limit, q.Offset)

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s ORDER BY name ASC, id ASC LIMIT $%d OFFSET $%d",
		t.columns(), t.table, strings.Join(where, " AND "), len(args)-1, len(args),
	)

	conn := database.Conn(ctx, s.db)
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	var items []models.Entity
	for rows.Next() {
		e, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	if t.isFigure() && len(items) > 0 {
		byID := make(map[uuid.UUID]*models.FigureAttrs, len(items))
		for i := range items {
			byID[items[i].ID] = items[i].Figure
		}
		if err := loadFigureLinks(ctx, conn, byID); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// Get retrieves an entity by ID. Returns nil if not found.
func (s *EntityStore) Get(ctx context.Context, kind models.Kind, id uuid.UUID) (*models.Entity, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	conn := database.Conn(ctx, s.db)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", t.columns(), t.table)
	e, err := t.scan(conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", kind, err)
	}

	if t.isFigure() {
		if err := loadFigureLinks(ctx, conn, map[uuid.UUID]*models.FigureAttrs{e.ID: e.Figure}); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Exists reports whether a row of kind with the given ID exists, whatever
// its moderation status.
func (s *EntityStore) Exists(ctx context.Context, kind models.Kind, id uuid.UUID) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)", t.table)
	if err := database.Conn(ctx, s.db).QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s exists: %w", kind, err)
	}
	return exists, nil
}

// SlugTaken reports whether another row of kind already uses slug. Pass
// uuid.Nil as exceptID when creating.
func (s *EntityStore) SlugTaken(ctx context.Context, kind models.Kind, slug string, exceptID uuid.UUID) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	var taken bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE slug = $1 AND id <> $2)", t.table)
	if err := database.Conn(ctx, s.db).QueryRowContext(ctx, query, slug, exceptID).Scan(&taken); err != nil {
		return false, fmt.Errorf("check %s slug: %w", kind, err)
	}
	return taken, nil
}

// Create inserts e and, for figures, its link rows. ID and timestamps are
// filled in from the database. A slug collision yields apperr.ErrConflict.
func (s *EntityStore) Create(ctx context.Context, e *models.Entity) error {
	t, err := tableFor(e.Kind)
	if err != nil {
		return err
	}

	cols := []string{"name", "slug", "description", "status", "created_by_id", "approved_by_id", "approved_at"}
	args := []any{e.Name, e.Slug, e.Description, e.Status, e.CreatedByID, e.ApprovedByID, e.ApprovedAt}
	if t.hasParent {
		cols = append(cols, "parent_id")
		args = append(args, e.ParentID)
	}
	if t.isFigure() {
		cols = append(cols, "brand_id", "line_id", "price_mxn", "release_date")
		args = append(args, e.Figure.BrandID, e.Figure.LineID, e.Figure.PriceMXN, e.Figure.ReleaseDate)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING id, created_at, updated_at",
		t.table, strings.Join(cols, ", "), placeholders(1, len(cols)),
	)

	conn := database.Conn(ctx, s.db)
	err = conn.QueryRowContext(ctx, query, args...).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return apperr.Conflict("%s with slug %q already exists", e.Kind, e.Slug)
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", e.Kind, err)
	}

	if t.isFigure() {
		return insertFigureLinks(ctx, conn, e.ID, e.Figure)
	}
	return nil
}

// Update overwrites the mutable columns of e and, for figures, replaces its
// link rows wholesale. Call inside a transaction so the replacement is
// never observed half-applied.
func (s *EntityStore) Update(ctx context.Context, e *models.Entity) error {
	t, err := tableFor(e.Kind)
	if err != nil {
		return err
	}

	sets := []string{"name", "slug", "description"}
	args := []any{e.ID, e.Name, e.Slug, e.Description}
	if t.hasParent {
		sets = append(sets, "parent_id")
		args = append(args, e.ParentID)
	}
	if t.isFigure() {
		sets = append(sets, "brand_id", "line_id", "price_mxn", "release_date")
		args = append(args, e.Figure.BrandID, e.Figure.LineID, e.Figure.PriceMXN, e.Figure.ReleaseDate)
	}
	assignments := make([]string, len(sets))
	for i, col := range sets {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+2)
	}

	query := fmt.Sprintf(
		"UPDATE %s SET %s, updated_at = NOW() WHERE id = $1 RETURNING updated_at",
		t.table, strings.Join(assignments, ", "),
	)

	conn := database.Conn(ctx, s.db)
	err = conn.QueryRowContext(ctx, query, args...).Scan(&e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("%s %s", e.Kind, e.ID)
	}
	if database.IsUniqueViolation(err) {
		return apperr.Conflict("%s with slug %q already exists", e.Kind, e.Slug)
	}
	if err != nil {
		return fmt.Errorf("update %s: %w", e.Kind, err)
	}

	if t.isFigure() {
		for _, table := range []string{"figure_images", "figure_tags", "figure_series", "figure_characters"} {
			if _, err := conn.ExecContext(ctx, "DELETE FROM "+table+" WHERE figure_id = $1", e.ID); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return insertFigureLinks(ctx, conn, e.ID, e.Figure)
	}
	return nil
}

// SetStatus moves an entity to status and writes the approval stamp in a
// single statement. Returns false if the row does not exist.
func (s *EntityStore) SetStatus(ctx context.Context, kind models.Kind, id uuid.UUID, status models.Status, approvedByID *uuid.UUID, approvedAt *time.Time) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf(
		"UPDATE %s SET status = $2, approved_by_id = $3, approved_at = $4, updated_at = NOW() WHERE id = $1",
		t.table,
	)
	res, err := database.Conn(ctx, s.db).ExecContext(ctx, query, id, status, approvedByID, approvedAt)
	if err != nil {
		return false, fmt.Errorf("set %s status: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set %s status: %w", kind, err)
	}
	return n > 0, nil
}

// Delete removes an entity. Dependent rows go with it through ON DELETE
// CASCADE; children referencing it are detached. Returns false if the row
// does not exist.
func (s *EntityStore) Delete(ctx context.Context, kind models.Kind, id uuid.UUID) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	res, err := database.Conn(ctx, s.db).ExecContext(ctx, "DELETE FROM "+t.table+" WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", kind, err)
	}
	return n > 0, nil
}

// FigureSummary returns the pricing and scheduling fields of a figure,
// regardless of its moderation status. Returns nil if not found.
func (s *EntityStore) FigureSummary(ctx context.Context, id uuid.UUID) (*models.FigureSummary, error) {
	f := &models.FigureSummary{}
	err := database.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, name, slug, status, price_mxn, release_date
		FROM figures WHERE id = $1
	`, id).Scan(&f.ID, &f.Name, &f.Slug, &f.Status, &f.PriceMXN, &f.ReleaseDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find figure summary: %w", err)
	}
	return f, nil
}

func insertFigureLinks(ctx context.Context, conn database.DBTX, figureID uuid.UUID, attrs *models.FigureAttrs) error {
	for i, url := range attrs.Images {
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO figure_images (figure_id, position, url) VALUES ($1, $2, $3)`,
			figureID, i, url,
		); err != nil {
			return fmt.Errorf("insert figure image: %w", err)
		}
	}
	for _, tag := range attrs.Tags {
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO figure_tags (figure_id, tag) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			figureID, tag,
		); err != nil {
			return fmt.Errorf("insert figure tag: %w", err)
		}
	}
	for _, seriesID := range attrs.SeriesIDs {
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO figure_series (figure_id, series_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			figureID, seriesID,
		); err != nil {
			return fmt.Errorf("insert figure series: %w", err)
		}
	}
	for _, characterID := range attrs.CharacterIDs {
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO figure_characters (figure_id, character_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			figureID, characterID,
		); err != nil {
			return fmt.Errorf("insert figure character: %w", err)
		}
	}
	return nil
}

// loadFigureLinks fills the link slices of every figure in byID using one
// query per link table.
func loadFigureLinks(ctx context.Context, conn database.DBTX, byID map[uuid.UUID]*models.FigureAttrs) error {
	ids := make([]uuid.UUID, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	arr := uuidArray(ids)

	images, err := queryLinks[string](ctx, conn,
		`SELECT figure_id, url FROM figure_images WHERE figure_id = ANY($1::uuid[]) ORDER BY figure_id, position`, arr)
	if err != nil {
		return fmt.Errorf("load figure images: %w", err)
	}
	tags, err := queryLinks[string](ctx, conn,
		`SELECT figure_id, tag FROM figure_tags WHERE figure_id = ANY($1::uuid[]) ORDER BY figure_id, tag`, arr)
	if err != nil {
		return fmt.Errorf("load figure tags: %w", err)
	}
	series, err := queryLinks[uuid.UUID](ctx, conn,
		`SELECT figure_id, series_id FROM figure_series WHERE figure_id = ANY($1::uuid[]) ORDER BY figure_id, series_id`, arr)
	if err != nil {
		return fmt.Errorf("load figure series: %w", err)
	}
	characters, err := queryLinks[uuid.UUID](ctx, conn,
		`SELECT figure_id, character_id FROM figure_characters WHERE figure_id = ANY($1::uuid[]) ORDER BY figure_id, character_id`, arr)
	if err != nil {
		return fmt.Errorf("load figure characters: %w", err)
	}

	for id, attrs := range byID {
		if v, ok := images[id]; ok {
			attrs.Images = v
		}
		if v, ok := tags[id]; ok {
			attrs.Tags = v
		}
		if v, ok := series[id]; ok {
			attrs.SeriesIDs = v
		}
		if v, ok := characters[id]; ok {
			attrs.CharacterIDs = v
		}
	}
	return nil
}

func queryLinks[T any](ctx context.Context, conn database.DBTX, query string, args ...any) (map[uuid.UUID][]T, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]T)
	for rows.Next() {
		var figureID uuid.UUID
		var v T
		if err := rows.Scan(&figureID, &v); err != nil {
			return nil, err
		}
		out[figureID] = append(out[figureID], v)
	}
	return out, rows.Err()
}

// uuidArray renders ids as a Postgres array literal for a $n::uuid[] parameter.
func uuidArray(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// placeholders returns "$from, $from+1, ..." for n parameters.
func placeholders(from, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ph, ", ")
}

// escapeLike escapes the LIKE wildcards in s so it matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
