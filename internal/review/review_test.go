// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package review

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figdex/internal/apperr"
	"figdex/internal/models"
)

// memRepo is an in-memory Repository, Ledger, Figures and Catalog. Create
// enforces the (user, figure) unique index.
type memRepo struct {
	mu      sync.Mutex
	reviews map[uuid.UUID]models.Review
	owned   map[[2]uuid.UUID]models.CollectionStatus
	figures map[uuid.UUID]models.Entity
}

func newMemRepo() *memRepo {
	return &memRepo{
		reviews: map[uuid.UUID]models.Review{},
		owned:   map[[2]uuid.UUID]models.CollectionStatus{},
		figures: map[uuid.UUID]models.Entity{},
	}
}

func (m *memRepo) addFigure() uuid.UUID {
	return m.addFigureWith(models.StatusApproved, uuid.New())
}

func (m *memRepo) addFigureWith(status models.Status, creator uuid.UUID) uuid.UUID {
	id := uuid.New()
	m.figures[id] = models.Entity{ID: id, Kind: models.KindFigure, Name: "figure", Status: status, CreatedByID: creator}
	return id
}

// Get shows approved figures to everyone, and other statuses to admins
// and the submitter.
func (m *memRepo) Get(_ context.Context, viewer *models.Viewer, kind models.Kind, id uuid.UUID) (*models.Entity, error) {
	e, ok := m.figures[id]
	if !ok || kind != models.KindFigure {
		return nil, apperr.NotFound("%s %s", kind, id)
	}
	if !e.IsApproved() && !viewer.IsAdmin() && !(viewer.Authenticated() && viewer.ID == e.CreatedByID) {
		return nil, apperr.NotFound("%s %s", kind, id)
	}
	return &e, nil
}

func (m *memRepo) track(userID, figureID uuid.UUID, status models.CollectionStatus) {
	m.owned[[2]uuid.UUID{userID, figureID}] = status
}

func (m *memRepo) FigureSummary(_ context.Context, id uuid.UUID) (*models.FigureSummary, error) {
	if _, ok := m.figures[id]; !ok {
		return nil, nil
	}
	return &models.FigureSummary{ID: id, Name: "figure"}, nil
}

func (m *memRepo) FindByUserFigure(_ context.Context, userID, figureID uuid.UUID) (*models.CollectionEntry, error) {
	status, ok := m.owned[[2]uuid.UUID{userID, figureID}]
	if !ok {
		return nil, nil
	}
	return &models.CollectionEntry{ID: uuid.New(), UserID: userID, FigureID: figureID, Status: status}, nil
}

func (m *memRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil, nil
	}
	r.Images = append([]string(nil), r.Images...)
	return &r, nil
}

func (m *memRepo) Exists(_ context.Context, userID, figureID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.UserID == userID && r.FigureID == figureID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) Create(_ context.Context, r *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reviews {
		if existing.UserID == r.UserID && existing.FigureID == r.FigureID {
			return apperr.Conflict("duplicate")
		}
	}
	r.ID = uuid.New()
	m.reviews[r.ID] = *r
	return nil
}

func (m *memRepo) Update(_ context.Context, r *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews[r.ID] = *r
	return nil
}

func (m *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reviews, id)
	return nil
}

func (m *memRepo) ListByFigure(_ context.Context, figureID uuid.UUID) ([]models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Review
	for _, r := range m.reviews {
		if r.FigureID == figureID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) Rating(_ context.Context, figureID uuid.UUID) (*models.FigureRating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rating := &models.FigureRating{FigureID: figureID}
	sum := 0
	for _, r := range m.reviews {
		if r.FigureID == figureID {
			sum += r.Rating
			rating.Count++
		}
	}
	if rating.Count > 0 {
		avg := float64(sum) / float64(rating.Count)
		rating.Average = &avg
	}
	return rating, nil
}

type noTx struct{}

func (noTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo, repo, repo, repo, noTx{}), repo
}

func viewer(role models.Role) *models.Viewer {
	return &models.Viewer{ID: uuid.New(), Role: role}
}

func TestCreateRequiresOwnership(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	fig := repo.addFigure()
	in := CreateInput{Rating: 5, Title: "Great sculpt"}

	tests := []struct {
		name   string
		status models.CollectionStatus
		track  bool
		want   error
	}{
		{"untracked", "", false, apperr.ErrForbidden},
		{"wishlist", models.CollectionWishlist, true, apperr.ErrForbidden},
		{"preorder", models.CollectionPreorder, true, apperr.ErrForbidden},
		{"owned", models.CollectionOwned, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := viewer(models.RoleUser)
			if tt.track {
				repo.track(user.ID, fig, tt.status)
			}
			_, err := svc.Create(ctx, user, fig, in)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestCreateChecks(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	user := viewer(models.RoleUser)
	fig := repo.addFigure()
	repo.track(user.ID, fig, models.CollectionOwned)

	_, err := svc.Create(ctx, nil, fig, CreateInput{Rating: 5, Title: "x"})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	for _, rating := range []int{0, 6, -1} {
		_, err = svc.Create(ctx, user, fig, CreateInput{Rating: rating, Title: "x"})
		assert.ErrorIs(t, err, apperr.ErrValidation, "rating %d", rating)
	}

	_, err = svc.Create(ctx, user, fig, CreateInput{Rating: 3, Title: "   "})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	// Validation precedes the figure lookup.
	_, err = svc.Create(ctx, user, uuid.New(), CreateInput{Rating: 9, Title: "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(ctx, user, uuid.New(), CreateInput{Rating: 3, Title: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Create(ctx, user, fig, CreateInput{Rating: 4, Title: "first"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, user, fig, CreateInput{Rating: 4, Title: "second"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestCreateTruncatesImages(t *testing.T) {
	svc, repo := newTestService()
	user := viewer(models.RoleUser)
	fig := repo.addFigure()
	repo.track(user.ID, fig, models.CollectionOwned)

	r, err := svc.Create(context.Background(), user, fig, CreateInput{
		Rating: 4,
		Title:  "Photos",
		Images: []string{"1.jpg", " ", "2.jpg", "3.jpg", "4.jpg", "5.jpg", "6.jpg", "7.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1.jpg", "2.jpg", "3.jpg", "4.jpg", "5.jpg"}, r.Images)
}

func TestUpdateAndDelete(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	author := viewer(models.RoleUser)
	fig := repo.addFigure()
	repo.track(author.ID, fig, models.CollectionOwned)

	r, err := svc.Create(ctx, author, fig, CreateInput{Rating: 4, Title: "Nice", Description: "Paint is *clean*", Images: []string{"a.jpg"}})
	require.NoError(t, err)
	assert.Equal(t, "<p>Paint is <em>clean</em></p>\n", r.DescriptionHTML)

	_, err = svc.Update(ctx, viewer(models.RoleUser), r.ID, UpdatePatch{Rating: models.Some(5)})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.Update(ctx, author, r.ID, UpdatePatch{Rating: models.Some(6)})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Update(ctx, author, r.ID, UpdatePatch{Title: models.Null[string]()})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Update(ctx, author, uuid.New(), UpdatePatch{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var patch UpdatePatch
	require.NoError(t, json.Unmarshal([]byte(`{"rating": 2, "description": null}`), &patch))
	updated, err := svc.Update(ctx, author, r.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Rating)
	assert.Equal(t, "Nice", updated.Title)
	assert.Empty(t, updated.Description)
	assert.Empty(t, updated.DescriptionHTML)
	assert.Equal(t, []string{"a.jpg"}, updated.Images)

	updated, err = svc.Update(ctx, viewer(models.RoleAdmin), r.ID, UpdatePatch{Images: models.Null[[]string]()})
	require.NoError(t, err)
	assert.Empty(t, updated.Images)

	assert.ErrorIs(t, svc.Delete(ctx, viewer(models.RoleUser), r.ID), apperr.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, nil, r.ID), apperr.ErrUnauthenticated)
	require.NoError(t, svc.Delete(ctx, viewer(models.RoleSuperadmin), r.ID))
	assert.ErrorIs(t, svc.Delete(ctx, author, r.ID), apperr.ErrNotFound)
}

func TestFigureRating(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	fig := repo.addFigure()

	rating, err := svc.FigureRating(ctx, nil, fig)
	require.NoError(t, err)
	assert.Nil(t, rating.Average, "no reviews means no rating, not zero")
	assert.Equal(t, 0, rating.Count)

	b, err := json.Marshal(rating)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"average":null`)

	for _, stars := range []int{5, 4, 3} {
		u := viewer(models.RoleUser)
		repo.track(u.ID, fig, models.CollectionOwned)
		_, err := svc.Create(ctx, u, fig, CreateInput{Rating: stars, Title: "ok"})
		require.NoError(t, err)
	}

	rating, err = svc.FigureRating(ctx, nil, fig)
	require.NoError(t, err)
	require.NotNil(t, rating.Average)
	assert.InDelta(t, 4.0, *rating.Average, 1e-9)
	assert.Equal(t, 3, rating.Count)

	reviews, err := svc.ListForFigure(ctx, nil, fig)
	require.NoError(t, err)
	assert.Len(t, reviews, 3)

	_, err = svc.FigureRating(ctx, nil, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.ListForFigure(ctx, nil, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReviewsFollowFigureVisibility(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	creator := viewer(models.RoleUser)
	fig := repo.addFigureWith(models.StatusPending, creator.ID)

	_, err := svc.ListForFigure(ctx, nil, fig)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.FigureRating(ctx, viewer(models.RoleUser), fig)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	reviews, err := svc.ListForFigure(ctx, creator, fig)
	require.NoError(t, err)
	assert.Empty(t, reviews)
	rating, err := svc.FigureRating(ctx, viewer(models.RoleAdmin), fig)
	require.NoError(t, err)
	assert.Equal(t, 0, rating.Count)
}

func TestLengthLimitsCountCharacters(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	fig := repo.addFigure()
	author := viewer(models.RoleUser)
	repo.track(author.ID, fig, models.CollectionOwned)

	_, err := svc.Create(ctx, author, fig, CreateInput{Rating: 5, Title: strings.Repeat("フ", maxTitleLen+1)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Create(ctx, author, fig, CreateInput{
		Rating:      5,
		Title:       "ok",
		Description: strings.Repeat("é", maxDescriptionLen+1),
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	r, err := svc.Create(ctx, author, fig, CreateInput{
		Rating:      5,
		Title:       strings.Repeat("フ", maxTitleLen),
		Description: strings.Repeat("é", maxDescriptionLen),
	})
	require.NoError(t, err)
	assert.Equal(t, maxTitleLen, utf8.RuneCountInString(r.Title))
}
