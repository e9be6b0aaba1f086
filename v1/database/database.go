package database

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
	"github.com/Aleph-Alpha/farmstore/v1/mariadb"
	"github.com/Aleph-Alpha/farmstore/v1/postgres"
	"github.com/Aleph-Alpha/farmstore/v1/sqlite"
)

// Logger is the logging surface used by the connection monitor.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Database owns the gorm connection pool, watches its health and reconnects
// when it fails.
//
// The active *gorm.DB is held in an atomic pointer and swapped by
// RetryConnection without blocking readers. The engine returned by Engine
// reads the pointer on every call, so a reconnect is picked up by the store
// transparently.
type Database struct {
	cfg    Config
	open   func() (*gorm.DB, error)
	logger Logger

	client          atomic.Pointer[gorm.DB]
	shutdownSignal  chan struct{}
	retryChanSignal chan error

	closeRetryChanOnce sync.Once
	closeShutdownOnce  sync.Once

	retryDelay time.Duration
}

// NewDatabase opens the database selected by cfg.Type. logger may be nil.
func NewDatabase(cfg Config, logger Logger) (*Database, error) {
	open, err := opener(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.HealthCheckInterval <= 0 {
		cfg.HealthCheckInterval = DefaultHealthCheckInterval
	}
	if logger == nil {
		logger = nopLogger{}
	}

	conn, err := open()
	if err != nil {
		return nil, fmt.Errorf("error in connecting to %s: %w", cfg.Type, err)
	}

	d := &Database{
		cfg:             cfg,
		open:            open,
		logger:          logger,
		shutdownSignal:  make(chan struct{}),
		retryChanSignal: make(chan error, 1),
		retryDelay:      time.Second,
	}
	d.client.Store(conn)

	logger.Info("database connected", nil, map[string]interface{}{"type": cfg.Type})
	return d, nil
}

func opener(cfg Config) (func() (*gorm.DB, error), error) {
	switch cfg.Type {
	case TypePostgres:
		return func() (*gorm.DB, error) { return postgres.Open(cfg.Postgres) }, nil
	case TypeMariaDB:
		return func() (*gorm.DB, error) { return mariadb.Open(cfg.MariaDB) }, nil
	case TypeSQLite:
		return func() (*gorm.DB, error) { return sqlite.Open(cfg.SQLite) }, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %q (must be 'postgres', 'mariadb' or 'sqlite')", cfg.Type)
	}
}

// Type returns the configured database type.
func (d *Database) Type() string {
	return d.cfg.Type
}

// DB returns the current connection pool.
func (d *Database) DB() *gorm.DB {
	return d.client.Load()
}

// Engine returns an engine bound to the current connection pool.
func (d *Database) Engine() *engine.GormEngine {
	return engine.NewGormEngine(d.DB)
}

// Migrate creates or alters the tables of models.
func (d *Database) Migrate(ctx context.Context, models ...any) error {
	db := d.DB()
	if db == nil {
		return engine.ErrNoConnection
	}
	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Ping checks that the database answers within ctx.
func (d *Database) Ping(ctx context.Context) error {
	dbConn := d.DB()
	if dbConn == nil {
		return fmt.Errorf("database client is not initialized")
	}

	db, err := dbConn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// RetryConnection waits for failures reported by MonitorConnection and
// reopens the pool until it succeeds, then waits again. It returns on
// shutdown or when ctx is done.
func (d *Database) RetryConnection(ctx context.Context) {
outerLoop:
	for {
		select {
		case <-d.shutdownSignal:
			return
		case <-ctx.Done():
			return
		case cause, ok := <-d.retryChanSignal:
			if !ok {
				return
			}
			d.logger.Warn("database connection lost, reconnecting", cause, map[string]interface{}{"type": d.cfg.Type})
			for {
				newConn, err := d.open()
				if err == nil {
					old := d.client.Swap(newConn)
					closePool(old)
					d.logger.Info("database reconnected", nil, map[string]interface{}{"type": d.cfg.Type})
					continue outerLoop
				}

				d.logger.Error("database reconnection failed", err, map[string]interface{}{"type": d.cfg.Type})
				select {
				case <-d.shutdownSignal:
					return
				case <-ctx.Done():
					return
				case <-time.After(d.retryDelay):
				}
			}
		}
	}
}

// MonitorConnection pings the database every HealthCheckInterval and signals
// RetryConnection when a ping fails.
func (d *Database) MonitorConnection(ctx context.Context) {
	defer d.closeRetryChanOnce.Do(func() {
		close(d.retryChanSignal)
	})

	ticker := time.NewTicker(d.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.shutdownSignal:
			return
		case <-ticker.C:
			if err := d.healthCheck(); err != nil {
				select {
				case d.retryChanSignal <- err:
				default:
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (d *Database) healthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.Ping(ctx)
}

// GracefulShutdown stops the monitor loops and closes the pool. It is safe to
// call more than once.
func (d *Database) GracefulShutdown() error {
	d.closeShutdownOnce.Do(func() {
		close(d.shutdownSignal)
	})

	conn := d.client.Swap(nil)
	if conn == nil {
		return nil
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func closePool(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
