package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ludotheque/internal/config"
	"ludotheque/internal/database"
	"ludotheque/internal/events"
	"ludotheque/internal/handlers"
	"ludotheque/internal/middleware"
	"ludotheque/internal/repository"
	"ludotheque/internal/service"
)

func main() {
	// Initialisation du logger
	initLogger()

	// Chargement de la configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatal("Failed to load config: ", err)
	}

	// Stockage des jeux
	gameRepo, db := openStore(cfg)
	if db != nil {
		defer db.Close()
	}

	// Publication des événements
	publisher := openPublisher(cfg)

	gameService := service.NewGameService(gameRepo, publisher)

	// Configuration du mode Gin
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRoutes(gameService, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"host":   cfg.Server.Host,
			"port":   cfg.Server.Port,
			"env":    cfg.Server.Environment,
			"driver": cfg.Database.Driver,
		}).Info("🎮 Ludotheque starting...")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatal("Failed to start server: ", err)
		}
	}()

	gracefulShutdown(server, gameService)
}

// openStore ouvre le repository selon le driver configuré
func openStore(cfg *config.Config) (repository.GameRepository, *database.DB) {
	if cfg.Database.Driver == "memory" {
		logrus.Warn("Using in-memory game store, data will not survive a restart")
		return repository.NewMemoryGameRepository(), nil
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logrus.Fatal("Failed to connect to database: ", err)
	}

	if err := database.RunMigrations(db); err != nil {
		logrus.Fatal("Failed to run migrations: ", err)
	}

	return repository.NewGameRepository(db.DB), db
}

// openPublisher connecte NATS si activé, sinon publisher silencieux
func openPublisher(cfg *config.Config) events.Publisher {
	if !cfg.NATS.Enabled {
		return events.NewNoopPublisher()
	}

	publisher, err := events.NewNATSPublisher(cfg.NATS)
	if err != nil {
		logrus.WithError(err).Warn("NATS unavailable, game events disabled")
		return events.NewNoopPublisher()
	}
	return publisher
}

// setupRoutes configure toutes les routes du service
func setupRoutes(gameService *service.GameService, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Middleware globaux
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(cfg.Server.AllowOrigins))
	router.Use(middleware.RequestID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Metrics())

	healthHandler := handlers.NewHealthHandler(cfg, gameService)
	gameHandler := handlers.NewGameHandler(gameService)

	// Routes de santé et monitoring
	router.GET(cfg.Monitoring.HealthPath, healthHandler.HealthCheck)
	router.GET("/health/ready", healthHandler.Readiness)
	router.GET("/health/live", healthHandler.Liveness)
	router.GET(cfg.Monitoring.MetricsPath, healthHandler.Metrics)
	router.GET("/version", healthHandler.Version)
	router.GET("/ping", healthHandler.Ping)

	api := router.Group("/api")
	api.Use(middleware.RateLimit(cfg.RateLimit))
	{
		games := api.Group("/games")
		{
			games.POST("", gameHandler.CreateGame)
			games.GET("", gameHandler.ListGames)
			games.GET("/:id", gameHandler.GetGame)
			games.PUT("/:id", gameHandler.UpdateGame)
			games.DELETE("/:id", gameHandler.DeleteGame)
			games.POST("/:id/favorite", gameHandler.ToggleFavorite)
		}

		api.GET("/stats", gameHandler.GetStats)
		api.GET("/export", gameHandler.ExportGames)
	}

	// Frontend statique
	router.NoRoute(handlers.StaticFallback(cfg.Server.StaticDir))

	return router
}

// initLogger initialise le logger global
func initLogger() {
	logrus.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})

	if os.Getenv("ENVIRONMENT") == "production" {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(logrus.DebugLevel)
	}

	logrus.WithField("service", "ludotheque").Info("Logger initialized")
}

// gracefulShutdown gère l'arrêt gracieux du serveur
func gracefulShutdown(server *http.Server, gameService *service.GameService) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logrus.Info("🛑 Ludotheque shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Error("Server forced to shutdown: ", err)
	}

	if err := gameService.Close(); err != nil {
		logrus.Error("Error closing game service: ", err)
	}

	logrus.Info("✅ Ludotheque stopped")
}
