package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"ludotheque/internal/models"
)

const gameColumns = `id, titre, genre, plateforme, editeur, developpeur, annee_sortie,
	temps_jeu_heures, termine, favorite, date_ajout, date_modification`

type gameRepository struct {
	db *sqlx.DB
}

// NewGameRepository creates a PostgreSQL backed repository
func NewGameRepository(db *sqlx.DB) GameRepository {
	return &gameRepository{db: db}
}

// Insert stores a new game; the id is generated by the database
func (r *gameRepository) Insert(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games (titre, genre, plateforme, editeur, developpeur, annee_sortie,
			temps_jeu_heures, termine, favorite, date_ajout, date_modification)
		VALUES (:titre, :genre, :plateforme, :editeur, :developpeur, :annee_sortie,
			:temps_jeu_heures, :termine, :favorite, :date_ajout, :date_modification)
		RETURNING id
	`

	rows, err := r.db.NamedQueryContext(ctx, query, game)
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to insert game: %w", err)
		}
		return fmt.Errorf("failed to insert game: no id returned")
	}
	if err := rows.Scan(&game.ID); err != nil {
		return fmt.Errorf("failed to scan game id: %w", err)
	}

	return nil
}

// FindByID retrieves a game by ID
func (r *gameRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	query := fmt.Sprintf(`SELECT %s FROM games WHERE id = $1`, gameColumns)

	var game models.Game
	err := r.db.GetContext(ctx, &game, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("game", id.String())
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return &game, nil
}

// UpdateFields applies a partial update and returns the new state
func (r *gameRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}, stamp time.Time) (*models.Game, error) {
	for column := range fields {
		if !isUpdatable(column) {
			return nil, fmt.Errorf("column %q is not updatable", column)
		}
	}

	var sets []string
	var args []interface{}
	argCount := 0

	// ordre fixe pour des requêtes stables
	for _, column := range updatableColumns {
		value, ok := fields[column]
		if !ok {
			continue
		}
		argCount++
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argCount))
		args = append(args, columnValue(value))
	}

	argCount++
	sets = append(sets, fmt.Sprintf(
		"date_modification = GREATEST($%d, date_modification + INTERVAL '1 microsecond')", argCount))
	args = append(args, stamp)

	argCount++
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE games SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), argCount, gameColumns)

	var game models.Game
	err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&game)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("game", id.String())
		}
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	return &game, nil
}

// Delete deletes a game
func (r *gameRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM games WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.NewNotFoundError("game", id.String())
	}

	return nil
}

// Find retrieves games matching the filter, most recently added first.
// Equal dates fall back to insertion order, latest first.
func (r *gameRepository) Find(ctx context.Context, filter models.GameFilter) ([]*models.Game, error) {
	var conditions []string
	var args []interface{}
	argCount := 0

	if filter.Genre != nil {
		argCount++
		conditions = append(conditions, fmt.Sprintf("genre @> ARRAY[$%d]::text[]", argCount))
		args = append(args, *filter.Genre)
	}

	if filter.Plateforme != nil {
		argCount++
		conditions = append(conditions, fmt.Sprintf("plateforme @> ARRAY[$%d]::text[]", argCount))
		args = append(args, *filter.Plateforme)
	}

	if filter.Termine != nil {
		argCount++
		conditions = append(conditions, fmt.Sprintf("termine = $%d", argCount))
		args = append(args, *filter.Termine)
	}

	if filter.Favorite != nil {
		argCount++
		conditions = append(conditions, fmt.Sprintf("favorite = $%d", argCount))
		args = append(args, *filter.Favorite)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT %s FROM games %s ORDER BY date_ajout DESC, seq DESC`, gameColumns, whereClause)

	games := []*models.Game{}
	if err := r.db.SelectContext(ctx, &games, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"conditions": len(conditions),
		"count":      len(games),
	}).Debug("Games listed")

	return games, nil
}

// FindAll scans the whole collection in insertion order
func (r *gameRepository) FindAll(ctx context.Context) ([]*models.Game, error) {
	query := fmt.Sprintf(`SELECT %s FROM games ORDER BY seq`, gameColumns)

	games := []*models.Game{}
	if err := r.db.SelectContext(ctx, &games, query); err != nil {
		return nil, fmt.Errorf("failed to scan games: %w", err)
	}

	return games, nil
}

// HealthCheck pings the database
func (r *gameRepository) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("games store health check failed: %w", err)
	}
	return nil
}

func columnValue(value interface{}) interface{} {
	if items, ok := value.([]string); ok {
		return pq.Array(items)
	}
	return value
}
