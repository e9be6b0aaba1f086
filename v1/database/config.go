package database

import (
	"time"

	"github.com/Aleph-Alpha/farmstore/v1/mariadb"
	"github.com/Aleph-Alpha/farmstore/v1/postgres"
	"github.com/Aleph-Alpha/farmstore/v1/sqlite"
)

// Supported database types.
const (
	TypePostgres = "postgres"
	TypeMariaDB  = "mariadb"
	TypeSQLite   = "sqlite"
)

// DefaultHealthCheckInterval is used when Config.HealthCheckInterval is zero.
const DefaultHealthCheckInterval = 10 * time.Second

// Config selects the database type and carries the settings of each dialect.
// Only the section matching Type is used.
type Config struct {
	// Type is "postgres", "mariadb" or "sqlite".
	Type string `koanf:"type"`

	Postgres postgres.Config `koanf:"postgres"`
	MariaDB  mariadb.Config  `koanf:"mariadb"`
	SQLite   sqlite.Config   `koanf:"sqlite"`

	// HealthCheckInterval is the period of the connection monitor.
	HealthCheckInterval time.Duration `koanf:"health_check_interval"`
}

// PostgresConfig creates a Config for PostgreSQL.
//
//	fx.Provide(func() database.Config {
//	    return database.PostgresConfig(postgres.Config{
//	        Connection: postgres.Connection{Host: "localhost", Port: "5432"},
//	    })
//	})
func PostgresConfig(cfg postgres.Config) Config {
	return Config{Type: TypePostgres, Postgres: cfg}
}

// MariaDBConfig creates a Config for MariaDB/MySQL.
func MariaDBConfig(cfg mariadb.Config) Config {
	return Config{Type: TypeMariaDB, MariaDB: cfg}
}

// SQLiteConfig creates a Config for SQLite.
func SQLiteConfig(cfg sqlite.Config) Config {
	return Config{Type: TypeSQLite, SQLite: cfg}
}
