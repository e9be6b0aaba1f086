package mariadb

import "time"

// Config defines the MariaDB/MySQL connection settings.
type Config struct {
	Connection        Connection        `koanf:"connection"`
	ConnectionDetails ConnectionDetails `koanf:"connection_details"`
}

// Connection holds the server address, credentials and DSN parameters.
type Connection struct {
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DbName   string `koanf:"db_name"`

	// Charset defaults to utf8mb4.
	Charset string `koanf:"charset"`
	// ParseTime scans DATETIME columns into time.Time.
	ParseTime bool `koanf:"parse_time"`
	// Loc defaults to Local.
	Loc string `koanf:"loc"`

	TLS          string `koanf:"tls"`
	Timeout      string `koanf:"timeout"`
	ReadTimeout  string `koanf:"read_timeout"`
	WriteTimeout string `koanf:"write_timeout"`
}

// ConnectionDetails tunes the connection pool. Zero values take the package
// defaults.
type ConnectionDetails struct {
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}
