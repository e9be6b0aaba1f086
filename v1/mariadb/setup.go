// Package mariadb opens gorm connections to MariaDB and MySQL.
package mariadb

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DSN renders the go-sql-driver DSN of cfg:
// username:password@tcp(host:port)/dbname?param=value
func DSN(cfg Config) string {
	conn := cfg.Connection

	charset := conn.Charset
	if charset == "" {
		charset = "utf8mb4"
	}

	parseTime := "True"
	if !conn.ParseTime {
		parseTime = "False"
	}

	loc := conn.Loc
	if loc == "" {
		loc = "Local"
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=%s&loc=%s",
		conn.User,
		conn.Password,
		conn.Host,
		conn.Port,
		conn.DbName,
		charset,
		parseTime,
		loc,
	)

	if conn.TLS != "" {
		dsn += "&tls=" + conn.TLS
	}
	if conn.Timeout != "" {
		dsn += "&timeout=" + conn.Timeout
	}
	if conn.ReadTimeout != "" {
		dsn += "&readTimeout=" + conn.ReadTimeout
	}
	if conn.WriteTimeout != "" {
		dsn += "&writeTimeout=" + conn.WriteTimeout
	}
	return dsn
}

// Open connects to MariaDB/MySQL and configures the pool.
func Open(cfg Config) (*gorm.DB, error) {
	database, err := gorm.Open(
		mysql.Open(DSN(cfg)),
		&gorm.Config{
			TranslateError: true,
			Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MariaDB/MySQL database: %w", err)
	}

	databaseInstance, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get MariaDB/MySQL database instance: %w", err)
	}

	maxOpenConns := cfg.ConnectionDetails.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = 50
	}
	maxIdleConns := cfg.ConnectionDetails.MaxIdleConns
	if maxIdleConns <= 0 {
		maxIdleConns = 25
	}
	connMaxLifetime := cfg.ConnectionDetails.ConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = 1 * time.Minute
	}

	databaseInstance.SetMaxOpenConns(maxOpenConns)
	databaseInstance.SetMaxIdleConns(maxIdleConns)
	databaseInstance.SetConnMaxLifetime(connMaxLifetime)

	return database, nil
}
