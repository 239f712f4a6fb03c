package repository

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"ludotheque/internal/config"
	"ludotheque/internal/database"
)

// setupTestDB démarre un conteneur PostgreSQL et crée la table des jeux
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Skipping integration test: TEST_INTEGRATION not set")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:16-alpine",
		postgres.WithDatabase("ludotheque_test"),
		postgres.WithUsername("ludotheque"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	portNumber, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	cfg := config.Default().Database
	cfg.Host = host
	cfg.Port = portNumber
	cfg.User = "ludotheque"
	cfg.Password = "test-password"
	cfg.Name = "ludotheque_test"
	cfg.SSLMode = "disable"

	db, err := database.NewConnection(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.RunMigrations(db))
	// une seconde exécution ne doit rien casser
	require.NoError(t, database.RunMigrations(db))

	return db
}

func TestPostgresGameRepository(t *testing.T) {
	db := setupTestDB(t)

	runRepositoryContract(t, func(t *testing.T) GameRepository {
		_, err := db.Exec(`TRUNCATE games`)
		require.NoError(t, err)
		return NewGameRepository(db.DB)
	})
}
