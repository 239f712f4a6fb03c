package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"ludotheque/internal/config"
	"ludotheque/internal/models"
)

// Types d'événements publiés après une mutation réussie
const (
	GameCreated         = "created"
	GameUpdated         = "updated"
	GameDeleted         = "deleted"
	GameFavoriteToggled = "favorite_toggled"
)

// GameEvent message publié sur le bus
type GameEvent struct {
	Type string               `json:"type"`
	ID   string               `json:"id"`
	Game *models.GameResponse `json:"game,omitempty"`
	At   time.Time            `json:"at"`
}

// Publisher diffuse les événements de la collection
type Publisher interface {
	Publish(event GameEvent) error
	Close() error
}

type noopPublisher struct{}

// NewNoopPublisher publisher utilisé quand NATS est désactivé
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(GameEvent) error { return nil }
func (noopPublisher) Close() error            { return nil }

// NATSPublisher publie en JSON sur <prefix>.game.<type>
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSPublisher établit la connexion NATS
func NewNATSPublisher(cfg config.NATSConfig) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.ClientID),
		nats.Timeout(cfg.ConnectTimeout),
		nats.ReconnectWait(cfg.ReconnectDelay),
		nats.MaxReconnects(cfg.MaxReconnectAttempts),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logrus.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logrus.Info("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logrus.WithField("url", cfg.URL).Info("Connected to NATS")
	return &NATSPublisher{conn: nc, prefix: cfg.SubjectPrefix}, nil
}

// Subject sujet NATS d'un type d'événement
func Subject(prefix, eventType string) string {
	return fmt.Sprintf("%s.game.%s", prefix, eventType)
}

func (p *NATSPublisher) Publish(event GameEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal game event: %w", err)
	}

	if err := p.conn.Publish(Subject(p.prefix, event.Type), data); err != nil {
		return fmt.Errorf("failed to publish game event: %w", err)
	}
	return nil
}

// Close vide le tampon puis ferme la connexion
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}
