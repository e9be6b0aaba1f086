package sqlite

import "time"

// Config defines the SQLite database settings.
type Config struct {
	Connection Connection `koanf:"connection"`
}

// Connection locates the database file.
type Connection struct {
	// Path is a file path or ":memory:".
	Path string `koanf:"path"`

	// BusyTimeout is how long a writer waits on a locked database. Defaults to 5s.
	BusyTimeout time.Duration `koanf:"busy_timeout"`
}
