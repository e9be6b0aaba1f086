package database

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
	"github.com/Aleph-Alpha/farmstore/v1/postgres"
)

const postgresPort nat.Port = "5432/tcp"

func setupPostgresContainer(ctx context.Context, t *testing.T) postgres.Config {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image: "postgres:15",
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		ExposedPorts: []string{string(postgresPort)},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.Tmpfs = map[string]string{"/var/lib/postgresql/data": "rw"}
		},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}

	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, postgresPort)
	require.NoError(t, err)

	cfg := postgres.Config{Connection: postgres.Connection{
		Host:     host,
		Port:     port.Port(),
		User:     "testuser",
		Password: "testpass",
		DbName:   "testdb",
		SSLMode:  "disable",
	}}
	require.NoError(t, waitForPostgresReady(postgres.DSN(cfg), 30*time.Second))
	return cfg
}

func waitForPostgresReady(dsn string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		db, err := sql.Open("postgres", dsn)
		if err == nil {
			err = db.Ping()
			_ = db.Close()
			if err == nil {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("postgres not ready after %s", timeout)
}

func TestPostgresIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	cfg := setupPostgresContainer(ctx, t)

	d, err := NewDatabase(PostgresConfig(cfg), nil)
	require.NoError(t, err)
	defer func() { _ = d.GracefulShutdown() }()

	require.NoError(t, d.Migrate(ctx, &barn{}))

	eng := d.Engine()
	_, err = eng.Prepare("INSERT INTO barns (id, name) VALUES (?, ?)").Bind("b1", "North").Run(ctx)
	require.NoError(t, err)

	_, err = eng.Prepare("INSERT INTO barns (id, name) VALUES (?, ?)").Bind("b1", "Again").Run(ctx)
	require.Error(t, err)
	assert.Equal(t, engine.KindConstraint, engine.KindOf(err))

	results, err := eng.Batch(ctx, []engine.BoundStatement{
		eng.Prepare("UPDATE barns SET name = ? WHERE id = ?").Bind("South", "b1"),
		eng.Prepare("SELECT name FROM barns WHERE id = ?").Bind("b1"),
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].Changes)
	assert.Equal(t, "South", results[1].First()["name"])

	_, err = eng.Prepare("SELEC name FROM barns").Bind().All(ctx)
	require.Error(t, err)
	assert.Equal(t, engine.KindSyntax, engine.KindOf(err))
}
