package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ludotheque/internal/config"
	"ludotheque/internal/models"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "ludotheque.game.created", Subject("ludotheque", GameCreated))
	assert.Equal(t, "dev.game.favorite_toggled", Subject("dev", GameFavoriteToggled))
}

func TestNoopPublisher(t *testing.T) {
	p := NewNoopPublisher()

	assert.NoError(t, p.Publish(GameEvent{Type: GameDeleted, ID: "x"}))
	assert.NoError(t, p.Close())
}

func TestGameEventJSON(t *testing.T) {
	at := time.Date(2026, 10, 16, 8, 30, 0, 0, time.UTC)

	data, err := json.Marshal(GameEvent{Type: GameDeleted, ID: "abc", At: at})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"deleted","id":"abc","at":"2026-10-16T08:30:00Z"}`, string(data))

	data, err = json.Marshal(GameEvent{Type: GameCreated, ID: "abc", Game: &models.GameResponse{ID: "abc", Titre: "Celeste"}, At: at})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"titre":"Celeste"`)
}

func TestNewNATSPublisherFailsWithoutServer(t *testing.T) {
	_, err := NewNATSPublisher(config.NATSConfig{
		Enabled:        true,
		URL:            "nats://127.0.0.1:1",
		ClientID:       "ludotheque-test",
		SubjectPrefix:  "ludotheque",
		ConnectTimeout: 200 * time.Millisecond,
		ReconnectDelay: 10 * time.Millisecond,
	})

	assert.Error(t, err)
}
