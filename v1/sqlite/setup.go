// Package sqlite opens gorm connections to SQLite databases.
//
// SQLite allows one writer at a time, so the pool is pinned to a single
// connection that is never recycled. This also keeps ":memory:" databases
// alive for the lifetime of the pool.
package sqlite

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultBusyTimeout = 5 * time.Second

// DSN renders the go-sqlite3 DSN of cfg with foreign keys enforced.
func DSN(cfg Config) string {
	path := cfg.Connection.Path
	if path == "" {
		path = ":memory:"
	}
	busy := cfg.Connection.BusyTimeout
	if busy <= 0 {
		busy = defaultBusyTimeout
	}
	return fmt.Sprintf("%s?_busy_timeout=%d&_foreign_keys=on", path, busy.Milliseconds())
}

// Open opens the database and pins the pool to one connection.
func Open(cfg Config) (*gorm.DB, error) {
	database, err := gorm.Open(
		sqlite.Open(DSN(cfg)),
		&gorm.Config{
			TranslateError: true,
			Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	databaseInstance, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQLite database instance: %w", err)
	}

	databaseInstance.SetMaxOpenConns(1)
	databaseInstance.SetMaxIdleConns(1)
	databaseInstance.SetConnMaxLifetime(0)

	return database, nil
}
