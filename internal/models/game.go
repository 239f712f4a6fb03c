package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Game représente un jeu de la collection tel qu'il est stocké
type Game struct {
	ID               uuid.UUID      `db:"id"`
	Titre            string         `db:"titre"`
	Genre            pq.StringArray `db:"genre"`
	Plateforme       pq.StringArray `db:"plateforme"`
	Editeur          *string        `db:"editeur"`
	Developpeur      *string        `db:"developpeur"`
	AnneeSortie      *float64       `db:"annee_sortie"`
	TempsJeuHeures   float64        `db:"temps_jeu_heures"`
	Termine          bool           `db:"termine"`
	Favorite         bool           `db:"favorite"`
	DateAjout        time.Time      `db:"date_ajout"`
	DateModification time.Time      `db:"date_modification"`
}

// GameResponse représentation externe d'un jeu
type GameResponse struct {
	ID               string    `json:"id"`
	Titre            string    `json:"titre"`
	Genre            []string  `json:"genre"`
	Plateforme       []string  `json:"plateforme"`
	Editeur          *string   `json:"editeur"`
	Developpeur      *string   `json:"developpeur"`
	AnneeSortie      *float64  `json:"annee_sortie"`
	TempsJeuHeures   float64   `json:"temps_jeu_heures"`
	Termine          bool      `json:"termine"`
	Favorite         bool      `json:"favorite"`
	DateAjout        time.Time `json:"date_ajout"`
	DateModification time.Time `json:"date_modification"`
}

// GameFilter critères de filtrage de la liste. Un pointeur nil
// signifie "pas de filtre".
type GameFilter struct {
	Genre      *string
	Plateforme *string
	Termine    *bool
	Favorite   *bool
}

// GameStats statistiques agrégées de la collection
type GameStats struct {
	TotalGames    int     `json:"totalGames"`
	TotalPlayTime float64 `json:"totalPlayTime"`
	FinishedGames int     `json:"finishedGames"`
	FavoriteGames int     `json:"favoriteGames"`
}

// ToResponse convertit un jeu stocké en sa représentation externe.
// Un jeu nil donne nil.
func ToResponse(game *Game) *GameResponse {
	if game == nil {
		return nil
	}

	return &GameResponse{
		ID:               game.ID.String(),
		Titre:            game.Titre,
		Genre:            copyStrings(game.Genre),
		Plateforme:       copyStrings(game.Plateforme),
		Editeur:          game.Editeur,
		Developpeur:      game.Developpeur,
		AnneeSortie:      game.AnneeSortie,
		TempsJeuHeures:   game.TempsJeuHeures,
		Termine:          game.Termine,
		Favorite:         game.Favorite,
		DateAjout:        game.DateAjout,
		DateModification: game.DateModification,
	}
}

// ToResponses convertit une liste de jeux
func ToResponses(games []*Game) []*GameResponse {
	responses := make([]*GameResponse, 0, len(games))
	for _, game := range games {
		responses = append(responses, ToResponse(game))
	}
	return responses
}

// Clone retourne une copie indépendante du jeu
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	clone := *g
	clone.Genre = pq.StringArray(copyStrings(g.Genre))
	clone.Plateforme = pq.StringArray(copyStrings(g.Plateforme))
	if g.Editeur != nil {
		v := *g.Editeur
		clone.Editeur = &v
	}
	if g.Developpeur != nil {
		v := *g.Developpeur
		clone.Developpeur = &v
	}
	if g.AnneeSortie != nil {
		v := *g.AnneeSortie
		clone.AnneeSortie = &v
	}
	return &clone
}

// SetField affecte une colonne à partir d'une valeur normalisée
// (string, []string, float64, bool ou nil pour les colonnes nullables).
func (g *Game) SetField(column string, value interface{}) error {
	switch column {
	case "titre":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("column titre: unexpected %T", value)
		}
		g.Titre = s
	case "genre", "plateforme":
		items, ok := value.([]string)
		if !ok {
			return fmt.Errorf("column %s: unexpected %T", column, value)
		}
		arr := pq.StringArray(copyStrings(items))
		if column == "genre" {
			g.Genre = arr
		} else {
			g.Plateforme = arr
		}
	case "editeur", "developpeur":
		var ptr *string
		if value != nil {
			s, ok := value.(string)
			if !ok {
				return fmt.Errorf("column %s: unexpected %T", column, value)
			}
			ptr = &s
		}
		if column == "editeur" {
			g.Editeur = ptr
		} else {
			g.Developpeur = ptr
		}
	case "annee_sortie":
		if value == nil {
			g.AnneeSortie = nil
			return nil
		}
		n, ok := value.(float64)
		if !ok {
			return fmt.Errorf("column annee_sortie: unexpected %T", value)
		}
		g.AnneeSortie = &n
	case "temps_jeu_heures":
		n, ok := value.(float64)
		if !ok {
			return fmt.Errorf("column temps_jeu_heures: unexpected %T", value)
		}
		g.TempsJeuHeures = n
	case "termine", "favorite":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("column %s: unexpected %T", column, value)
		}
		if column == "termine" {
			g.Termine = b
		} else {
			g.Favorite = b
		}
	default:
		return fmt.Errorf("unknown column %q", column)
	}
	return nil
}

func copyStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
