package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ludotheque/internal/events"
	"ludotheque/internal/models"
	"ludotheque/internal/repository"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.GameEvent
}

func (p *recordingPublisher) Publish(event events.GameEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// fixedClock avance d'une seconde à chaque lecture
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestService(t *testing.T) (*GameService, *recordingPublisher) {
	t.Helper()
	publisher := &recordingPublisher{}
	svc := NewGameService(repository.NewMemoryGameRepository(), publisher)
	clock := &fixedClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc.now = clock.Now
	return svc, publisher
}

func celeste() map[string]interface{} {
	return map[string]interface{}{
		"titre":      "Celeste",
		"genre":      []interface{}{"platformer"},
		"plateforme": []interface{}{"PC"},
	}
}

func mustCreate(t *testing.T, svc *GameService, payload map[string]interface{}) *models.GameResponse {
	t.Helper()
	game, err := svc.Create(context.Background(), payload)
	require.NoError(t, err)
	return game
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc, publisher := newTestService(t)

	game := mustCreate(t, svc, celeste())

	_, err := uuid.Parse(game.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Celeste", game.Titre)
	assert.Equal(t, 0.0, game.TempsJeuHeures)
	assert.False(t, game.Termine)
	assert.False(t, game.Favorite)
	assert.Nil(t, game.Editeur)
	assert.Nil(t, game.Developpeur)
	assert.Nil(t, game.AnneeSortie)
	assert.Equal(t, game.DateAjout, game.DateModification)
	assert.Equal(t, []string{events.GameCreated}, publisher.types())
}

func TestCreateKeepsOptionalFields(t *testing.T) {
	svc, _ := newTestService(t)
	payload := celeste()
	payload["editeur"] = "Maddy Makes Games"
	payload["annee_sortie"] = 2018.0
	payload["temps_jeu_heures"] = 42.5
	payload["termine"] = true
	payload["note"] = "ignored"

	game := mustCreate(t, svc, payload)

	require.NotNil(t, game.Editeur)
	assert.Equal(t, "Maddy Makes Games", *game.Editeur)
	require.NotNil(t, game.AnneeSortie)
	assert.Equal(t, 2018.0, *game.AnneeSortie)
	assert.Equal(t, 42.5, game.TempsJeuHeures)
	assert.True(t, game.Termine)
}

func TestCreateListsEveryMissingField(t *testing.T) {
	svc, publisher := newTestService(t)

	_, err := svc.Create(context.Background(), map[string]interface{}{"editeur": "Nintendo"})

	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{"titre requis", "genre requis", "plateforme requis"}, validationErr.Errors)
	assert.Empty(t, publisher.types())
}

func TestUpdateRejectsOutOfRangeYearAndKeepsRecord(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created := mustCreate(t, svc, celeste())

	_, err := svc.Update(ctx, created.ID, map[string]interface{}{"annee_sortie": 1969})

	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{"annee_sortie doit être ≥ 1970"}, validationErr.Errors)

	stored, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, stored)
}

func TestUpdateWithoutFields(t *testing.T) {
	svc, _ := newTestService(t)
	created := mustCreate(t, svc, celeste())

	_, err := svc.Update(context.Background(), created.ID, map[string]interface{}{})
	var noFields *models.NoFieldsError
	assert.ErrorAs(t, err, &noFields)

	_, err = svc.Update(context.Background(), created.ID, map[string]interface{}{"id": "x", "date_ajout": "2020-01-01"})
	assert.ErrorAs(t, err, &noFields)
}

func TestUpdateMergesWhitelistedFields(t *testing.T) {
	svc, publisher := newTestService(t)
	ctx := context.Background()
	payload := celeste()
	payload["editeur"] = "Matt Makes Games"
	created := mustCreate(t, svc, payload)

	updated, err := svc.Update(ctx, created.ID, map[string]interface{}{
		"temps_jeu_heures":  12.0,
		"editeur":           nil,
		"date_ajout":        "1999-01-01T00:00:00Z",
		"date_modification": "1999-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Celeste", updated.Titre)
	assert.Equal(t, 12.0, updated.TempsJeuHeures)
	assert.Nil(t, updated.Editeur)
	assert.Equal(t, created.DateAjout, updated.DateAjout)
	assert.True(t, updated.DateModification.After(created.DateModification))
	assert.Equal(t, []string{events.GameCreated, events.GameUpdated}, publisher.types())
}

func TestUpdateUnknownGame(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Update(context.Background(), uuid.NewString(), map[string]interface{}{"termine": true})

	var notFound *models.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestToggleFavoriteTwice(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created := mustCreate(t, svc, celeste())

	first, err := svc.ToggleFavorite(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, first.Favorite)
	assert.True(t, first.DateModification.After(created.DateModification))

	second, err := svc.ToggleFavorite(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, second.Favorite)
	assert.True(t, second.DateModification.After(first.DateModification))
	assert.Equal(t, created.DateAjout, second.DateAjout)
}

func TestToggleFavoriteStrictlyIncreasesWithFrozenClock(t *testing.T) {
	svc, _ := newTestService(t)
	frozen := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return frozen }
	ctx := context.Background()
	created := mustCreate(t, svc, celeste())

	first, err := svc.ToggleFavorite(ctx, created.ID)
	require.NoError(t, err)
	second, err := svc.ToggleFavorite(ctx, created.ID)
	require.NoError(t, err)

	assert.True(t, first.DateModification.After(created.DateModification))
	assert.True(t, second.DateModification.After(first.DateModification))
}

func TestListFiltersAndOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	hades := map[string]interface{}{
		"titre":      "Hades",
		"genre":      []interface{}{"roguelike", "action"},
		"plateforme": []interface{}{"PC", "Switch"},
		"termine":    true,
	}
	outerWilds := map[string]interface{}{
		"titre":      "Outer Wilds",
		"genre":      []interface{}{"exploration"},
		"plateforme": []interface{}{"PS5"},
		"termine":    true,
		"favorite":   true,
	}
	c := mustCreate(t, svc, celeste())
	h := mustCreate(t, svc, hades)
	o := mustCreate(t, svc, outerWilds)

	all, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{o.ID, h.ID, c.ID}, ids(all))

	finished, err := svc.List(ctx, map[string]string{"termine": "true"})
	require.NoError(t, err)
	assert.Equal(t, []string{o.ID, h.ID}, ids(finished))
	for _, g := range finished {
		assert.True(t, g.Termine)
	}

	ignored, err := svc.List(ctx, map[string]string{"termine": "maybe"})
	require.NoError(t, err)
	assert.Len(t, ignored, 3)

	byGenre, err := svc.List(ctx, map[string]string{"genre": "action"})
	require.NoError(t, err)
	assert.Equal(t, []string{h.ID}, ids(byGenre))

	combined, err := svc.List(ctx, map[string]string{"plateforme": "PC", "favorite": "false"})
	require.NoError(t, err)
	assert.Equal(t, []string{h.ID, c.ID}, ids(combined))
}

func TestStats(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	empty, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.GameStats{}, empty)

	first := celeste()
	first["temps_jeu_heures"] = 10.5
	first["termine"] = true
	mustCreate(t, svc, first)
	second := mustCreate(t, svc, celeste())
	_, err = svc.ToggleFavorite(ctx, second.ID)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.GameStats{
		TotalGames:    2,
		TotalPlayTime: 10.5,
		FinishedGames: 1,
		FavoriteGames: 1,
	}, stats)
}

func TestGetByIDDistinguishesInvalidAndMissing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetByID(ctx, "not-an-id")
	var invalid *models.InvalidIDError
	assert.ErrorAs(t, err, &invalid)

	_, err = svc.GetByID(ctx, uuid.NewString())
	var notFound *models.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.False(t, errors.As(err, &invalid))
}

func TestDeleteTwice(t *testing.T) {
	svc, publisher := newTestService(t)
	ctx := context.Background()
	created := mustCreate(t, svc, celeste())

	require.NoError(t, svc.Delete(ctx, created.ID))

	err := svc.Delete(ctx, created.ID)
	var notFound *models.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, []string{events.GameCreated, events.GameDeleted}, publisher.types())
}

func TestExportAll(t *testing.T) {
	svc, _ := newTestService(t)
	a := mustCreate(t, svc, celeste())
	b := mustCreate(t, svc, celeste())

	exported, err := svc.ExportAll(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids(exported))
}

type brokenRepository struct {
	repository.GameRepository
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

func (brokenRepository) FindAll(context.Context) ([]*models.Game, error) {
	return nil, errConnRefused
}

func (brokenRepository) FindByID(context.Context, uuid.UUID) (*models.Game, error) {
	return nil, errConnRefused
}

func TestStoreFailuresAreMasked(t *testing.T) {
	svc := NewGameService(brokenRepository{}, nil)
	ctx := context.Background()

	_, err := svc.Stats(ctx)
	var storeErr *models.StoreUnavailableError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "store unavailable", err.Error())
	assert.ErrorIs(t, err, errConnRefused)

	_, err = svc.ToggleFavorite(ctx, uuid.NewString())
	assert.ErrorAs(t, err, &storeErr)
}

func ids(games []*models.GameResponse) []string {
	out := make([]string, 0, len(games))
	for _, g := range games {
		out = append(out, g.ID)
	}
	return out
}
