package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"ludotheque/internal/events"
	"ludotheque/internal/models"
	"ludotheque/internal/monitoring"
	"ludotheque/internal/repository"
	"ludotheque/internal/validator"
)

// GameService gère la logique métier de la collection. Il ne garde aucun
// état entre deux appels: tout vit dans le repository.
type GameService struct {
	repo      repository.GameRepository
	publisher events.Publisher
	now       func() time.Time
}

// NewGameService crée le service à partir d'un repository injecté
func NewGameService(repo repository.GameRepository, publisher events.Publisher) *GameService {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &GameService{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// Create valide puis enregistre un nouveau jeu
func (s *GameService) Create(ctx context.Context, payload map[string]interface{}) (_ *models.GameResponse, err error) {
	defer func() { s.record("create", err) }()

	if errs := validator.Validate(payload, false); len(errs) > 0 {
		return nil, models.NewValidationError(errs)
	}

	now := s.timestamp()
	game := &models.Game{
		DateAjout:        now,
		DateModification: now,
	}
	for _, rule := range validator.Schema {
		raw, present := payload[rule.Name]
		if err := game.SetField(rule.Name, normalize(rule, raw, present)); err != nil {
			return nil, fmt.Errorf("failed to build game: %w", err)
		}
	}

	if err := s.repo.Insert(ctx, game); err != nil {
		return nil, s.storeError("create", err)
	}

	resp := models.ToResponse(game)
	logrus.WithFields(logrus.Fields{
		"game_id": resp.ID,
		"titre":   game.Titre,
	}).Info("Game created")

	s.publish(events.GameCreated, resp.ID, resp)
	return resp, nil
}

// List retourne les jeux filtrés, les plus récemment ajoutés d'abord.
// termine et favorite ne s'appliquent que pour "true" ou "false".
func (s *GameService) List(ctx context.Context, filters map[string]string) (_ []*models.GameResponse, err error) {
	defer func() { s.record("list", err) }()

	filter := models.GameFilter{}
	if v := filters["genre"]; v != "" {
		filter.Genre = &v
	}
	if v := filters["plateforme"]; v != "" {
		filter.Plateforme = &v
	}
	filter.Termine = parseBoolFilter(filters["termine"])
	filter.Favorite = parseBoolFilter(filters["favorite"])

	games, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, s.storeError("list", err)
	}

	return models.ToResponses(games), nil
}

// GetByID récupère un jeu
func (s *GameService) GetByID(ctx context.Context, rawID string) (_ *models.GameResponse, err error) {
	defer func() { s.record("get", err) }()

	id, err := repository.ParseID(rawID)
	if err != nil {
		return nil, err
	}

	game, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeError("get", err)
	}

	return models.ToResponse(game), nil
}

// Update applique une mise à jour partielle limitée aux champs connus
func (s *GameService) Update(ctx context.Context, rawID string, payload map[string]interface{}) (_ *models.GameResponse, err error) {
	defer func() { s.record("update", err) }()

	id, err := repository.ParseID(rawID)
	if err != nil {
		return nil, err
	}

	if errs := validator.Validate(payload, true); len(errs) > 0 {
		return nil, models.NewValidationError(errs)
	}

	fields := make(map[string]interface{})
	for _, rule := range validator.Schema {
		if raw, present := payload[rule.Name]; present {
			fields[rule.Name] = normalize(rule, raw, true)
		}
	}
	if len(fields) == 0 {
		return nil, models.NewNoFieldsError()
	}

	game, err := s.repo.UpdateFields(ctx, id, fields, s.timestamp())
	if err != nil {
		return nil, s.storeError("update", err)
	}

	resp := models.ToResponse(game)
	logrus.WithFields(logrus.Fields{
		"game_id": resp.ID,
		"fields":  len(fields),
	}).Info("Game updated")

	s.publish(events.GameUpdated, resp.ID, resp)
	return resp, nil
}

// Delete supprime définitivement un jeu
func (s *GameService) Delete(ctx context.Context, rawID string) (err error) {
	defer func() { s.record("delete", err) }()

	id, err := repository.ParseID(rawID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.storeError("delete", err)
	}

	logrus.WithField("game_id", id).Info("Game deleted")
	s.publish(events.GameDeleted, id.String(), nil)
	return nil
}

// ToggleFavorite inverse le statut favori. Lecture puis écriture sans
// atomicité: deux bascules concurrentes sur le même jeu peuvent se
// chevaucher, la dernière écriture l'emporte.
func (s *GameService) ToggleFavorite(ctx context.Context, rawID string) (_ *models.GameResponse, err error) {
	defer func() { s.record("toggle_favorite", err) }()

	id, err := repository.ParseID(rawID)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeError("toggle_favorite", err)
	}

	fields := map[string]interface{}{"favorite": !current.Favorite}
	game, err := s.repo.UpdateFields(ctx, id, fields, s.timestamp())
	if err != nil {
		return nil, s.storeError("toggle_favorite", err)
	}

	resp := models.ToResponse(game)
	logrus.WithFields(logrus.Fields{
		"game_id":  resp.ID,
		"favorite": resp.Favorite,
	}).Info("Game favorite toggled")

	s.publish(events.GameFavoriteToggled, resp.ID, resp)
	return resp, nil
}

// Stats calcule les statistiques sur toute la collection
func (s *GameService) Stats(ctx context.Context) (_ *models.GameStats, err error) {
	defer func() { s.record("stats", err) }()

	games, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, s.storeError("stats", err)
	}

	stats := &models.GameStats{TotalGames: len(games)}
	for _, game := range games {
		stats.TotalPlayTime += game.TempsJeuHeures
		if game.Termine {
			stats.FinishedGames++
		}
		if game.Favorite {
			stats.FavoriteGames++
		}
	}

	return stats, nil
}

// ExportAll retourne toute la collection dans l'ordre d'insertion
func (s *GameService) ExportAll(ctx context.Context) (_ []*models.GameResponse, err error) {
	defer func() { s.record("export", err) }()

	games, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, s.storeError("export", err)
	}

	return models.ToResponses(games), nil
}

// HealthCheck vérifie le stockage
func (s *GameService) HealthCheck() error {
	return s.repo.HealthCheck()
}

// Close ferme le publisher d'événements
func (s *GameService) Close() error {
	return s.publisher.Close()
}

// timestamp heure courante à la précision du stockage
func (s *GameService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// storeError laisse passer les erreurs métier et masque le reste
func (s *GameService) storeError(op string, err error) error {
	var notFound *models.NotFoundError
	if errors.As(err, &notFound) {
		return err
	}

	logrus.WithError(err).WithField("operation", op).Error("Game store failure")
	return models.NewStoreUnavailableError(op, err)
}

func (s *GameService) publish(eventType, id string, game *models.GameResponse) {
	event := events.GameEvent{
		Type: eventType,
		ID:   id,
		Game: game,
		At:   s.timestamp(),
	}
	if err := s.publisher.Publish(event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event":   eventType,
			"game_id": id,
		}).Warn("Failed to publish game event")
	}
}

func (s *GameService) record(op string, err error) {
	monitoring.RecordOperation(op, outcome(err))
}

func outcome(err error) string {
	var (
		validationErr *models.ValidationError
		invalidID     *models.InvalidIDError
		notFound      *models.NotFoundError
		noFields      *models.NoFieldsError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &validationErr):
		return "validation_error"
	case errors.As(err, &invalidID):
		return "invalid_id"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &noFields):
		return "no_fields"
	}
	return "store_error"
}

// normalize convertit une valeur validée du payload en valeur de colonne.
// Absente ou nulle, elle prend la valeur par défaut déclarée du champ.
func normalize(rule validator.FieldRule, raw interface{}, present bool) interface{} {
	if !present || raw == nil {
		return rule.Default
	}

	switch rule.Type {
	case validator.TypeArray:
		items, _ := validator.AsStrings(raw)
		return items
	case validator.TypeNumber:
		n, _ := validator.AsNumber(raw)
		return n
	case validator.TypeBoolean:
		b, _ := raw.(bool)
		return b
	}
	return raw
}

func parseBoolFilter(value string) *bool {
	switch value {
	case "true":
		b := true
		return &b
	case "false":
		b := false
		return &b
	}
	return nil
}
