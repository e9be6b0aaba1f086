// Package config loads the farmstore configuration.
//
// Values are layered, highest precedence first: explicitly set CLI flags,
// FARMSTORE_ environment variables, the YAML config file, defaults.
// Environment variables nest with a double underscore:
//
//	FARMSTORE_DATABASE__SQLITE__CONNECTION__PATH=/var/lib/farm.db
//	FARMSTORE_STORE__RATE_LIMIT__MAX_QUERIES=500
//	FARMSTORE_STORE__RETRYABLE_KINDS=busy,locked
package config

import (
	"github.com/Aleph-Alpha/farmstore/v1/database"
	"github.com/Aleph-Alpha/farmstore/v1/logger"
	"github.com/Aleph-Alpha/farmstore/v1/metrics"
	"github.com/Aleph-Alpha/farmstore/v1/store"
	"github.com/Aleph-Alpha/farmstore/v1/tracer"
)

// Config is the complete service configuration, one section per package.
type Config struct {
	Logger   logger.Config   `koanf:"logger"`
	Metrics  metrics.Config  `koanf:"metrics"`
	Tracer   tracer.Config   `koanf:"tracer"`
	Database database.Config `koanf:"database"`
	Store    store.Config    `koanf:"store"`
}

// ServiceName is the default service name of logs, metrics and traces.
const ServiceName = "farmstore"

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "FARMSTORE_"

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"logger.level":                      logger.Info,
		"logger.service_name":               ServiceName,
		"metrics.address":                   metrics.DefaultMetricsAddress,
		"metrics.namespace":                 ServiceName,
		"metrics.service_name":              ServiceName,
		"metrics.enable_default_collectors": true,
		"tracer.service_name":               ServiceName,
		"tracer.app_env":                    "development",
		"database.type":                     database.TypeSQLite,
		"database.sqlite.connection.path":   "farmstore.db",
		"database.health_check_interval":    database.DefaultHealthCheckInterval.String(),
	}
}
