// Package database opens the configured SQL database (PostgreSQL,
// MariaDB/MySQL or SQLite) through gorm and keeps the connection healthy.
//
// A Database pings the pool periodically and reopens it on failure. Its
// Engine reads the current pool on every call, so the store above it never
// holds a stale connection.
//
//	db, err := database.NewDatabase(database.SQLiteConfig(sqlite.Config{
//		Connection: sqlite.Connection{Path: "farm.db"},
//	}), log)
//	if err != nil {
//		return err
//	}
//	defer db.GracefulShutdown()
//
//	if err := db.Migrate(ctx, farm.Models()...); err != nil {
//		return err
//	}
//	s := store.New(db.Engine(), store.Config{})
package database
