package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"ludotheque/internal/config"
)

// DB représente la connexion à la base de données
type DB struct {
	*sqlx.DB
}

// NewConnection crée une nouvelle connexion à la base de données
func NewConnection(cfg config.DatabaseConfig) (*DB, error) {
	db, err := sqlx.Connect("postgres", cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configuration de la pool de connexions
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"host":     cfg.Host,
		"port":     cfg.Port,
		"database": cfg.Name,
		"service":  "ludotheque",
	}).Info("Connected to PostgreSQL database")

	return &DB{
		DB: db,
	}, nil
}

// Close ferme la connexion à la base de données
func (db *DB) Close() error {
	if db.DB != nil {
		logrus.Info("Closing ludotheque database connection")
		return db.DB.Close()
	}
	return nil
}

// RunMigrations crée la table des jeux et ses index si besoin
func RunMigrations(db *DB) error {
	logrus.Info("Running ludotheque database bootstrap...")

	for i, stmt := range []string{createGamesTable, addGamesSequence, createGamesIndexes} {
		logrus.WithField("step", i+1).Debug("Executing bootstrap statement")

		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute bootstrap statement %d: %w", i+1, err)
		}
	}

	logrus.Info("Ludotheque database bootstrap completed")
	return nil
}

const createGamesTable = `
CREATE TABLE IF NOT EXISTS games (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    seq BIGSERIAL NOT NULL,
    titre TEXT NOT NULL,
    genre TEXT[] NOT NULL,
    plateforme TEXT[] NOT NULL,
    editeur TEXT,
    developpeur TEXT,
    annee_sortie DOUBLE PRECISION,
    temps_jeu_heures DOUBLE PRECISION NOT NULL DEFAULT 0,
    termine BOOLEAN NOT NULL DEFAULT FALSE,
    favorite BOOLEAN NOT NULL DEFAULT FALSE,
    date_ajout TIMESTAMP WITH TIME ZONE NOT NULL,
    date_modification TIMESTAMP WITH TIME ZONE NOT NULL
);`

// tables créées avant la colonne seq
const addGamesSequence = `ALTER TABLE games ADD COLUMN IF NOT EXISTS seq BIGSERIAL NOT NULL;`

const createGamesIndexes = `
CREATE INDEX IF NOT EXISTS idx_games_date_ajout_seq ON games(date_ajout DESC, seq DESC);
CREATE INDEX IF NOT EXISTS idx_games_genre ON games USING GIN (genre);
CREATE INDEX IF NOT EXISTS idx_games_plateforme ON games USING GIN (plateforme);
CREATE INDEX IF NOT EXISTS idx_games_termine ON games(termine);
CREATE INDEX IF NOT EXISTS idx_games_favorite ON games(favorite);
`
