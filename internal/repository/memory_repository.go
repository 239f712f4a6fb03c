package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ludotheque/internal/models"
)

// memoryGameRepository keeps games in process memory. Each call is atomic
// on its own, like a single-document operation of a real store.
type memoryGameRepository struct {
	mu    sync.RWMutex
	games map[uuid.UUID]*models.Game
	order []uuid.UUID
}

// NewMemoryGameRepository creates an in-memory repository
func NewMemoryGameRepository() GameRepository {
	return &memoryGameRepository{
		games: make(map[uuid.UUID]*models.Game),
	}
}

func (r *memoryGameRepository) Insert(ctx context.Context, game *models.Game) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	game.ID = uuid.New()
	r.games[game.ID] = game.Clone()
	r.order = append(r.order, game.ID)
	return nil
}

func (r *memoryGameRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	game, ok := r.games[id]
	if !ok {
		return nil, models.NewNotFoundError("game", id.String())
	}
	return game.Clone(), nil
}

func (r *memoryGameRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}, stamp time.Time) (*models.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.games[id]
	if !ok {
		return nil, models.NewNotFoundError("game", id.String())
	}

	updated := stored.Clone()
	for column, value := range fields {
		if !isUpdatable(column) {
			return nil, fmt.Errorf("column %q is not updatable", column)
		}
		if err := updated.SetField(column, value); err != nil {
			return nil, err
		}
	}
	updated.DateModification = nextStamp(stored.DateModification, stamp)

	r.games[id] = updated
	return updated.Clone(), nil
}

func (r *memoryGameRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.games[id]; !ok {
		return models.NewNotFoundError("game", id.String())
	}
	delete(r.games, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memoryGameRepository) Find(ctx context.Context, filter models.GameFilter) ([]*models.Game, error) {
	all, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	games := make([]*models.Game, 0, len(all))
	for _, game := range all {
		if matches(game, filter) {
			games = append(games, game)
		}
	}

	// tri stable: à date égale, le dernier inséré d'abord
	for i, j := 0, len(games)-1; i < j; i, j = i+1, j-1 {
		games[i], games[j] = games[j], games[i]
	}
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].DateAjout.After(games[j].DateAjout)
	})

	return games, nil
}

func (r *memoryGameRepository) FindAll(ctx context.Context) ([]*models.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	games := make([]*models.Game, 0, len(r.order))
	for _, id := range r.order {
		games = append(games, r.games[id].Clone())
	}
	return games, nil
}

func (r *memoryGameRepository) HealthCheck() error {
	return nil
}

func matches(game *models.Game, filter models.GameFilter) bool {
	if filter.Genre != nil && !contains(game.Genre, *filter.Genre) {
		return false
	}
	if filter.Plateforme != nil && !contains(game.Plateforme, *filter.Plateforme) {
		return false
	}
	if filter.Termine != nil && game.Termine != *filter.Termine {
		return false
	}
	if filter.Favorite != nil && game.Favorite != *filter.Favorite {
		return false
	}
	return true
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
