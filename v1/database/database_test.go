package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"gorm.io/gorm"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
	"github.com/Aleph-Alpha/farmstore/v1/sqlite"
)

type barn struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

func newSQLite(t *testing.T) *Database {
	t.Helper()
	d, err := NewDatabase(SQLiteConfig(sqlite.Config{Connection: sqlite.Connection{Path: ":memory:"}}), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.GracefulShutdown() })
	return d
}

func TestNewDatabaseRejectsUnknownType(t *testing.T) {
	_, err := NewDatabase(Config{Type: "oracle"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestMigrateAndEngine(t *testing.T) {
	d := newSQLite(t)
	ctx := context.Background()

	require.NoError(t, d.Migrate(ctx, &barn{}))
	require.NoError(t, d.Ping(ctx))

	eng := d.Engine()
	res, err := eng.Prepare("INSERT INTO barns (id, name) VALUES (?, ?)").Bind("b1", "North").Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Changes)

	row, err := eng.Prepare("SELECT name FROM barns WHERE id = ?").Bind("b1").First(ctx)
	require.NoError(t, err)
	assert.Equal(t, "North", row["name"])
	assert.Equal(t, TypeSQLite, d.Type())
}

func TestGracefulShutdownIsIdempotent(t *testing.T) {
	d := newSQLite(t)

	require.NoError(t, d.GracefulShutdown())
	require.NoError(t, d.GracefulShutdown())

	_, err := d.Engine().Prepare("SELECT 1").Bind().All(context.Background())
	require.Error(t, err)
	assert.Equal(t, engine.KindConnection, engine.KindOf(err))
	assert.ErrorIs(t, d.Migrate(context.Background(), &barn{}), engine.ErrNoConnection)
}

func TestRetryConnectionSwapsPool(t *testing.T) {
	d := newSQLite(t)
	d.retryDelay = time.Millisecond

	first := d.DB()
	calls := 0
	open := d.open
	d.open = func() (*gorm.DB, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("connection refused")
		}
		return open()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.RetryConnection(ctx)
	}()

	d.retryChanSignal <- errors.New("ping failed")

	require.Eventually(t, func() bool { return d.DB() != first }, time.Second, 5*time.Millisecond)
	require.NoError(t, d.Ping(context.Background()))

	cancel()
	<-done
	assert.Equal(t, 2, calls)
}

func TestFXModule(t *testing.T) {
	var (
		d   *Database
		eng engine.Engine
	)

	app := fxtest.New(t,
		fx.Provide(func() Config {
			return SQLiteConfig(sqlite.Config{Connection: sqlite.Connection{Path: ":memory:"}})
		}),
		FXModule,
		fx.Populate(&d, &eng),
	)
	app.RequireStart()

	res, err := eng.Prepare("SELECT 1 AS one").Bind().All(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.EqualValues(t, 1, res.Rows[0]["one"])

	app.RequireStop()
	assert.Nil(t, d.DB())
}
