package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ludotheque/internal/middleware"
	"ludotheque/internal/models"
	"ludotheque/internal/service"
)

// GameHandler gère les routes de la collection
type GameHandler struct {
	gameService *service.GameService
	now         func() time.Time
}

// NewGameHandler crée un nouveau handler de jeux
func NewGameHandler(gameService *service.GameService) *GameHandler {
	return &GameHandler{
		gameService: gameService,
		now:         time.Now,
	}
}

// CreateGame godoc
// @Summary      Ajout d'un jeu
// @Tags         games
// @Accept       json
// @Produce      json
// @Success      201  {object}  models.GameResponse
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/games [post]
func (h *GameHandler) CreateGame(c *gin.Context) {
	payload, ok := h.bindPayload(c)
	if !ok {
		return
	}

	game, err := h.gameService.Create(c.Request.Context(), payload)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, game)
}

// ListGames godoc
// @Summary      Liste filtrée des jeux
// @Tags         games
// @Produce      json
// @Param        genre       query  string  false  "Genre exact"
// @Param        plateforme  query  string  false  "Plateforme exacte"
// @Param        termine     query  string  false  "true ou false"
// @Param        favorite    query  string  false  "true ou false"
// @Success      200  {array}  models.GameResponse
// @Router       /api/games [get]
func (h *GameHandler) ListGames(c *gin.Context) {
	filters := map[string]string{
		"genre":      c.Query("genre"),
		"plateforme": c.Query("plateforme"),
		"termine":    c.Query("termine"),
		"favorite":   c.Query("favorite"),
	}

	games, err := h.gameService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, games)
}

// GetGame godoc
// @Summary      Détail d'un jeu
// @Tags         games
// @Produce      json
// @Param        id   path  string  true  "ID du jeu"
// @Success      200  {object}  models.GameResponse
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/games/{id} [get]
func (h *GameHandler) GetGame(c *gin.Context) {
	game, err := h.gameService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, game)
}

// UpdateGame godoc
// @Summary      Mise à jour partielle d'un jeu
// @Tags         games
// @Accept       json
// @Produce      json
// @Param        id   path  string  true  "ID du jeu"
// @Success      200  {object}  models.GameResponse
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/games/{id} [put]
func (h *GameHandler) UpdateGame(c *gin.Context) {
	payload, ok := h.bindPayload(c)
	if !ok {
		return
	}

	game, err := h.gameService.Update(c.Request.Context(), c.Param("id"), payload)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, game)
}

// DeleteGame godoc
// @Summary      Suppression d'un jeu
// @Tags         games
// @Param        id   path  string  true  "ID du jeu"
// @Success      204
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/games/{id} [delete]
func (h *GameHandler) DeleteGame(c *gin.Context) {
	if err := h.gameService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ToggleFavorite godoc
// @Summary      Bascule du statut favori
// @Tags         games
// @Produce      json
// @Param        id   path  string  true  "ID du jeu"
// @Success      200  {object}  models.GameResponse
// @Router       /api/games/{id}/favorite [post]
func (h *GameHandler) ToggleFavorite(c *gin.Context) {
	game, err := h.gameService.ToggleFavorite(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, game)
}

// GetStats statistiques de la collection
func (h *GameHandler) GetStats(c *gin.Context) {
	stats, err := h.gameService.Stats(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportGames renvoie toute la collection en pièce jointe JSON
func (h *GameHandler) ExportGames(c *gin.Context) {
	games, err := h.gameService.ExportAll(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	filename := fmt.Sprintf("ludotheque-export-%s.json", h.now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.JSON(http.StatusOK, games)
}

func (h *GameHandler) bindPayload(c *gin.Context) (map[string]interface{}, bool) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		logrus.WithError(err).WithField("request_id", middleware.GetRequestID(c)).
			Debug("Invalid JSON body")
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("Corps JSON invalide", middleware.GetRequestID(c)))
		return nil, false
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return payload, true
}

// handleError traduit les erreurs du service en codes HTTP
func (h *GameHandler) handleError(c *gin.Context, err error) {
	requestID := middleware.GetRequestID(c)

	var (
		validationErr *models.ValidationError
		invalidID     *models.InvalidIDError
		notFound      *models.NotFoundError
		noFields      *models.NoFieldsError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, models.NewValidationErrorResponse(validationErr.Errors, requestID))
	case errors.As(err, &invalidID):
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("ID invalide", requestID))
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, models.NewErrorResponse("Jeu non trouvé", requestID))
	case errors.As(err, &noFields):
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("Aucun champ valide à mettre à jour", requestID))
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": requestID,
		}).Error("Game request failed")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("Erreur serveur", requestID))
	}
}
