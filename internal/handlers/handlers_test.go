// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figdex/internal/apperr"
	"figdex/internal/collection"
	"figdex/internal/middleware"
	"figdex/internal/models"
	"figdex/internal/moderation"
	"figdex/internal/visibility"
)

// do sends a request through h as viewer and returns the recorder.
func do(h http.Handler, viewer *models.Viewer, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if viewer != nil {
		req = req.WithContext(middleware.WithViewer(req.Context(), viewer))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body["error"]
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{apperr.Unauthenticated("who are you"), http.StatusUnauthorized},
		{apperr.Forbidden("nope"), http.StatusForbidden},
		{apperr.NotFound("figure x"), http.StatusNotFound},
		{apperr.Conflict("dupe"), http.StatusConflict},
		{apperr.Validation("bad"), http.StatusUnprocessableEntity},
		{fmt.Errorf("wrapped: %w", apperr.Conflict("dupe")), http.StatusConflict},
		{errors.New("pq: connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, rr.Code)
			msg := errorBody(t, rr)
			if tt.status == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", msg, "driver details must not leak")
			} else {
				assert.Equal(t, tt.err.Error(), msg)
			}
		})
	}
}

// ---------- catalog ----------

type catalogStub struct {
	gotKind     models.Kind
	gotScope    visibility.Scope
	gotQuery    models.EntityQuery
	gotViewer   *models.Viewer
	gotInput    moderation.EntityInput
	gotPatch    moderation.EntityPatch
	gotApproved *bool
	err         error
}

func (s *catalogStub) List(_ context.Context, viewer *models.Viewer, kind models.Kind, scope visibility.Scope, q models.EntityQuery) ([]models.Entity, error) {
	s.gotViewer, s.gotKind, s.gotScope, s.gotQuery = viewer, kind, scope, q
	return []models.Entity{}, s.err
}

func (s *catalogStub) Get(_ context.Context, viewer *models.Viewer, kind models.Kind, id uuid.UUID) (*models.Entity, error) {
	s.gotViewer, s.gotKind = viewer, kind
	if s.err != nil {
		return nil, s.err
	}
	return &models.Entity{ID: id, Kind: kind}, nil
}

func (s *catalogStub) Create(_ context.Context, actor *models.Viewer, kind models.Kind, in moderation.EntityInput) (*models.Entity, error) {
	s.gotViewer, s.gotKind, s.gotInput = actor, kind, in
	if s.err != nil {
		return nil, s.err
	}
	return &models.Entity{ID: uuid.New(), Kind: kind, Name: in.Name}, nil
}

func (s *catalogStub) SetApproval(_ context.Context, actor *models.Viewer, kind models.Kind, id uuid.UUID, approved bool) (*models.Entity, error) {
	s.gotViewer, s.gotKind, s.gotApproved = actor, kind, &approved
	return &models.Entity{ID: id, Kind: kind}, s.err
}

func (s *catalogStub) Update(_ context.Context, actor *models.Viewer, kind models.Kind, id uuid.UUID, patch moderation.EntityPatch) (*models.Entity, error) {
	s.gotViewer, s.gotKind, s.gotPatch = actor, kind, patch
	return &models.Entity{ID: id, Kind: kind}, s.err
}

func (s *catalogStub) Delete(_ context.Context, actor *models.Viewer, kind models.Kind, _ uuid.UUID) error {
	s.gotViewer, s.gotKind = actor, kind
	return s.err
}

func catalogRouter(stub *catalogStub, kind models.Kind) http.Handler {
	c := NewCatalog(stub)
	r := chi.NewRouter()
	base := "/api/" + kind.Path()
	r.Get(base, c.List(kind))
	r.Post(base, c.Create(kind))
	r.Get(base+"/{id}", c.Get(kind))
	r.Patch(base+"/{id}", c.Update(kind))
	r.Delete(base+"/{id}", c.Delete(kind))
	r.Post(base+"/{id}/approval", c.SetApproval(kind))
	return r
}

func TestCatalogListParsesQuery(t *testing.T) {
	stub := &catalogStub{}
	h := catalogRouter(stub, models.KindFigure)
	admin := &models.Viewer{ID: uuid.New(), Role: models.RoleAdmin}
	brand := uuid.New()

	rr := do(h, admin, http.MethodGet, "/api/figures?scope=ALL&q=rem&limit=10&offset=5&brand_id="+brand.String(), "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	assert.Equal(t, models.KindFigure, stub.gotKind)
	assert.Equal(t, visibility.ScopeAll, stub.gotScope)
	assert.Equal(t, "rem", stub.gotQuery.Search)
	assert.Equal(t, 10, stub.gotQuery.Limit)
	assert.Equal(t, 5, stub.gotQuery.Offset)
	require.NotNil(t, stub.gotQuery.BrandID)
	assert.Equal(t, brand, *stub.gotQuery.BrandID)
	assert.Nil(t, stub.gotQuery.LineID)
	assert.Same(t, admin, stub.gotViewer)

	var body struct {
		Items []models.Entity `json:"items"`
		Limit int             `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotNil(t, body.Items)
	assert.Equal(t, 10, body.Limit)
}

func TestCatalogListRejectsBadQuery(t *testing.T) {
	tests := []struct {
		name   string
		kind   models.Kind
		target string
	}{
		{"non-numeric limit", models.KindFigure, "/api/figures?limit=ten"},
		{"non-numeric offset", models.KindBrand, "/api/brands?offset=x"},
		{"malformed brand id", models.KindFigure, "/api/figures?brand_id=nope"},
		{"brand filter on brands", models.KindBrand, "/api/brands?brand_id=" + uuid.NewString()},
		{"line filter on series", models.KindSeries, "/api/series?line_id=" + uuid.NewString()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(catalogRouter(&catalogStub{}, tt.kind), nil, http.MethodGet, tt.target, "")
			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		})
	}
}

func TestCatalogCreate(t *testing.T) {
	user := &models.Viewer{ID: uuid.New(), Role: models.RoleUser}

	t.Run("valid body", func(t *testing.T) {
		stub := &catalogStub{}
		rr := do(catalogRouter(stub, models.KindFigure), user, http.MethodPost, "/api/figures",
			`{"name": "Rem", "price_mxn": 1999.5, "tags": ["maid"], "images": ["https://img.example/rem.jpg"]}`)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		assert.Equal(t, "Rem", stub.gotInput.Name)
		require.NotNil(t, stub.gotInput.PriceMXN)
		assert.Equal(t, models.Money(199950), *stub.gotInput.PriceMXN)
		assert.Same(t, user, stub.gotViewer)
	})

	bad := map[string]string{
		"missing name":   `{"description": "x"}`,
		"unknown field":  `{"name": "Rem", "nmae": "typo"}`,
		"malformed JSON": `{"name": `,
		"bad image url":  `{"name": "Rem", "images": ["not a url"]}`,
		"name too long":  `{"name": "` + strings.Repeat("a", 201) + `"}`,
	}
	for name, body := range bad {
		t.Run(name, func(t *testing.T) {
			stub := &catalogStub{}
			rr := do(catalogRouter(stub, models.KindFigure), user, http.MethodPost, "/api/figures", body)
			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
			assert.Empty(t, stub.gotKind, "service must not be called")
		})
	}

	t.Run("service conflict", func(t *testing.T) {
		stub := &catalogStub{err: apperr.Conflict("slug rem already exists")}
		rr := do(catalogRouter(stub, models.KindBrand), user, http.MethodPost, "/api/brands", `{"name": "Rem"}`)
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Contains(t, errorBody(t, rr), "slug rem already exists")
	})
}

func TestCatalogSetApproval(t *testing.T) {
	admin := &models.Viewer{ID: uuid.New(), Role: models.RoleAdmin}
	id := uuid.New()

	stub := &catalogStub{}
	rr := do(catalogRouter(stub, models.KindLine), admin, http.MethodPost, "/api/lines/"+id.String()+"/approval", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, "approved is required")
	assert.Nil(t, stub.gotApproved)

	rr = do(catalogRouter(stub, models.KindLine), admin, http.MethodPost, "/api/lines/"+id.String()+"/approval", `{"approved": false}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, stub.gotApproved)
	assert.False(t, *stub.gotApproved)
	assert.Equal(t, models.KindLine, stub.gotKind)
}

func TestCatalogUpdateKeepsTriState(t *testing.T) {
	stub := &catalogStub{}
	admin := &models.Viewer{ID: uuid.New(), Role: models.RoleAdmin}

	rr := do(catalogRouter(stub, models.KindFigure), admin, http.MethodPatch, "/api/figures/"+uuid.NewString(),
		`{"name": "Rem (Wedding)", "description": null}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	assert.True(t, stub.gotPatch.Name.Present())
	assert.Equal(t, "Rem (Wedding)", stub.gotPatch.Name.Value)
	assert.True(t, stub.gotPatch.Description.Set)
	assert.True(t, stub.gotPatch.Description.Null)
	assert.False(t, stub.gotPatch.Tags.Set, "absent fields stay absent")
}

func TestCatalogPathIDs(t *testing.T) {
	stub := &catalogStub{}
	h := catalogRouter(stub, models.KindCharacter)

	rr := do(h, nil, http.MethodGet, "/api/characters/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(h, nil, http.MethodGet, "/api/characters/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, stub.gotViewer, "guests reach the service as nil viewers")

	stub.err = apperr.Forbidden("admin role required")
	rr = do(h, &models.Viewer{ID: uuid.New(), Role: models.RoleUser}, http.MethodDelete, "/api/characters/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	stub.err = nil
	rr = do(h, &models.Viewer{ID: uuid.New(), Role: models.RoleAdmin}, http.MethodDelete, "/api/characters/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

// ---------- collection ----------

type collectionStub struct {
	gotStatus *models.CollectionStatus
	gotMonth  string
	gotTrack  collection.TrackInput
	gotPatch  collection.RetargetPatch
}

func (s *collectionStub) Track(_ context.Context, _ *models.Viewer, in collection.TrackInput) (*models.CollectionEntry, error) {
	s.gotTrack = in
	return &models.CollectionEntry{ID: uuid.New(), FigureID: in.FigureID, Status: in.Status}, nil
}

func (s *collectionStub) Retarget(_ context.Context, _ *models.Viewer, id uuid.UUID, patch collection.RetargetPatch) (*models.CollectionEntry, error) {
	s.gotPatch = patch
	return &models.CollectionEntry{ID: id}, nil
}

func (s *collectionStub) Untrack(context.Context, *models.Viewer, uuid.UUID) error { return nil }

func (s *collectionStub) List(_ context.Context, _ *models.Viewer, status *models.CollectionStatus) ([]models.CollectionEntry, error) {
	s.gotStatus = status
	return []models.CollectionEntry{}, nil
}

func (s *collectionStub) Calendar(_ context.Context, _ *models.Viewer, month string) (*collection.Calendar, error) {
	s.gotMonth = month
	return collection.AggregateByMonth(nil, month), nil
}

func collectionRouter(stub *collectionStub) http.Handler {
	c := NewCollection(stub)
	r := chi.NewRouter()
	r.Get("/api/collection", c.List)
	r.Post("/api/collection", c.Track)
	r.Get("/api/collection/calendar", c.Calendar)
	r.Patch("/api/collection/{id}", c.Retarget)
	r.Delete("/api/collection/{id}", c.Untrack)
	return r
}

func TestCollectionHandlers(t *testing.T) {
	stub := &collectionStub{}
	h := collectionRouter(stub)
	user := &models.Viewer{ID: uuid.New(), Role: models.RoleUser}

	rr := do(h, user, http.MethodGet, "/api/collection?status=OWNED", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, stub.gotStatus)
	assert.Equal(t, models.CollectionOwned, *stub.gotStatus)

	do(h, user, http.MethodGet, "/api/collection", "")
	assert.Nil(t, stub.gotStatus)

	rr = do(h, user, http.MethodGet, "/api/collection/calendar?month=2025-03", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "2025-03", stub.gotMonth)
	assert.JSONEq(t, `{"months": [], "grand_total": 0.00, "count": 0}`, rr.Body.String())

	fig := uuid.New()
	rr = do(h, user, http.MethodPost, "/api/collection", `{"figure_id": "`+fig.String()+`", "status": "PREORDER", "user_price": 2500}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, fig, stub.gotTrack.FigureID)
	assert.Equal(t, models.Pesos(2500), *stub.gotTrack.UserPrice)

	rr = do(h, user, http.MethodPost, "/api/collection", `{"figure_id": "`+fig.String()+`", "status": "SOLD"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = do(h, user, http.MethodPost, "/api/collection", `{"status": "OWNED"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, "figure_id is required")

	rr = do(h, user, http.MethodPatch, "/api/collection/"+uuid.NewString(), `{"user_price": null}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, stub.gotPatch.UserPrice.Null)
	assert.False(t, stub.gotPatch.Status.Set)

	rr = do(h, user, http.MethodDelete, "/api/collection/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

// ---------- config ----------

type settingsStub struct {
	gotKey, gotValue string
}

func (s *settingsStub) Get(_ context.Context, _ *models.Viewer, key string) (*models.SystemSetting, error) {
	s.gotKey = key
	return &models.SystemSetting{Key: key, Value: "false"}, nil
}

func (s *settingsStub) Set(_ context.Context, _ *models.Viewer, key, value string) (*models.SystemSetting, error) {
	s.gotKey, s.gotValue = key, value
	return &models.SystemSetting{Key: key, Value: value}, nil
}

func TestConfigSetAcceptsStringOrBool(t *testing.T) {
	stub := &settingsStub{}
	c := NewConfig(stub)
	r := chi.NewRouter()
	r.Get("/api/config/{key}", c.Get)
	r.Put("/api/config/{key}", c.Set)
	super := &models.Viewer{ID: uuid.New(), Role: models.RoleSuperadmin}

	for body, want := range map[string]string{
		`{"value": "true"}`: "true",
		`{"value": true}`:   "true",
		`{"value": false}`:  "false",
	} {
		rr := do(r, super, http.MethodPut, "/api/config/SHOW_PENDING_FIGURES", body)
		require.Equal(t, http.StatusOK, rr.Code, body)
		assert.Equal(t, "SHOW_PENDING_FIGURES", stub.gotKey)
		assert.Equal(t, want, stub.gotValue, body)
	}

	rr := do(r, super, http.MethodPut, "/api/config/SHOW_PENDING_FIGURES", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = do(r, super, http.MethodGet, "/api/config/SHOW_PENDING_FIGURES", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"key": "SHOW_PENDING_FIGURES", "value": "false", "updated_at": "0001-01-01T00:00:00Z"}`, rr.Body.String())
}
