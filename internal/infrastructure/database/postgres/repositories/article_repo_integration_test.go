//go:build integration

package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/pubconcept/internal/application/replacement"
	"github.com/turtacn/pubconcept/internal/config"
	"github.com/turtacn/pubconcept/internal/infrastructure/database/postgres"
	"github.com/turtacn/pubconcept/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/logging"
)

// startPostgres launches a PostgreSQL 16 container, applies the embedded
// migrations and returns a connected pool.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "pubconcept_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Host:     host,
		Port:     port.Int(),
		User:     "test",
		Password: "test",
		DBName:   "pubconcept_test",
		SSLMode:  "disable",
	}
	log := logging.NewNopLogger()

	db, err := postgres.OpenMigrationDB(cfg, log)
	require.NoError(t, err)
	require.NoError(t, postgres.RunMigrations(db, "", log))
	version, dirty, err := postgres.MigrationStatus(db, "")
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	require.NoError(t, db.Close())

	pool, err := postgres.NewConnectionPool(cfg, log)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestArticleSink_Postgres(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	repo := repositories.NewArticleRepository(pool, nil)
	sink := repositories.NewArticleSink(repo, "corpus.txt")

	runID := uuid.NewString()
	for i := 0; i < 3; i++ {
		require.NoError(t, sink.Write(ctx, replacement.ReplacedArticle{
			RunID: runID,
			PMID:  fmt.Sprintf("%d", 100+i),
			Text:  fmt.Sprintf("text %d", i),
			Spans: i,
		}))
	}
	require.NoError(t, sink.Close())

	n, err := repo.CountByRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := repo.ListByRun(ctx, runID, 10, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Seq)
	assert.Equal(t, "101", got[0].PMID)
	assert.Equal(t, "", got[0].Year)
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	runID := uuid.NewString()

	err := postgres.WithTransaction(ctx, pool, func(tx pgx.Tx, txCtx context.Context) error {
		repo := repositories.NewArticleRepository(tx, nil)
		require.NoError(t, repo.CreateRun(txCtx, runID, "x"))
		return fmt.Errorf("intentional")
	})
	require.EqualError(t, err, "intentional")

	var count int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM replacement_runs WHERE run_id = $1", runID).Scan(&count))
	assert.Zero(t, count)
}

//Personal.AI order the ending
