package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ludotheque/internal/models"
)

// GameRepository defines methods for game data access.
//
// UpdateFields values are plain Go values: string, []string, float64,
// bool or nil. Mutations set date_modification to the later of stamp and
// the previous value plus one microsecond.
type GameRepository interface {
	// Basic CRUD operations
	Insert(ctx context.Context, game *models.Game) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Game, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}, stamp time.Time) (*models.Game, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Query operations
	Find(ctx context.Context, filter models.GameFilter) ([]*models.Game, error)
	FindAll(ctx context.Context) ([]*models.Game, error)

	HealthCheck() error
}

// ParseID checks identifier syntax, independently of existence.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, models.NewInvalidIDError(raw)
	}
	return id, nil
}

// updatableColumns whitelist of columns UpdateFields may touch
var updatableColumns = []string{
	"titre",
	"genre",
	"plateforme",
	"editeur",
	"developpeur",
	"annee_sortie",
	"temps_jeu_heures",
	"termine",
	"favorite",
}

func isUpdatable(column string) bool {
	for _, c := range updatableColumns {
		if c == column {
			return true
		}
	}
	return false
}

// nextStamp keeps date_modification strictly increasing
func nextStamp(previous, stamp time.Time) time.Time {
	min := previous.Add(time.Microsecond)
	if stamp.Before(min) {
		return min
	}
	return stamp
}
