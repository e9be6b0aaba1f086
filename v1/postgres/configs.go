package postgres

import "time"

// Config defines the PostgreSQL connection settings.
type Config struct {
	Connection        Connection        `koanf:"connection"`
	ConnectionDetails ConnectionDetails `koanf:"connection_details"`
}

// Connection holds the server address and credentials.
type Connection struct {
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DbName   string `koanf:"db_name"`
	SSLMode  string `koanf:"ssl_mode"`
}

// ConnectionDetails tunes the connection pool. Zero values take the package
// defaults.
type ConnectionDetails struct {
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}
