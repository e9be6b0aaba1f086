package database

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
)

// FXModule provides *Database and the engine.Engine bound to it. The
// connection monitor runs between application start and stop, and the pool is
// closed on stop.
//
//	app := fx.New(
//	    database.FXModule,
//	    fx.Provide(func() database.Config {
//	        return database.SQLiteConfig(sqlite.Config{Connection: sqlite.Connection{Path: "farm.db"}})
//	    }),
//	)
var FXModule = fx.Module("database",
	fx.Provide(
		NewDatabaseWithDI,
		fx.Annotate(
			ProvideEngine,
			fx.As(new(engine.Engine)),
		),
	),
	fx.Invoke(RegisterDatabaseLifecycle),
)

// DatabaseParams groups the dependencies of NewDatabaseWithDI.
type DatabaseParams struct {
	fx.In

	Config Config
	Logger Logger `optional:"true"`
}

// NewDatabaseWithDI is the fx constructor for *Database.
func NewDatabaseWithDI(params DatabaseParams) (*Database, error) {
	return NewDatabase(params.Config, params.Logger)
}

// ProvideEngine exposes the engine of d.
func ProvideEngine(d *Database) *engine.GormEngine {
	return d.Engine()
}

// DatabaseLifecycleParams groups the dependencies of RegisterDatabaseLifecycle.
type DatabaseLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Database  *Database
}

// RegisterDatabaseLifecycle starts the connection monitor and reconnect loop
// on application start and stops them, then closes the pool, on stop.
func RegisterDatabaseLifecycle(params DatabaseLifecycleParams) {
	wg := &sync.WaitGroup{}
	// The start context expires once OnStart returns; the loops need one that
	// lives until OnStop.
	runCtx, cancel := context.WithCancel(context.Background())

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			wg.Add(1)
			go func() {
				defer wg.Done()
				params.Database.MonitorConnection(runCtx)
			}()

			wg.Add(1)
			go func() {
				defer wg.Done()
				params.Database.RetryConnection(runCtx)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			err := params.Database.GracefulShutdown()
			wg.Wait()
			return err
		},
	})
}
