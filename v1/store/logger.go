package store

import "time"

// Logger is the logging surface the store writes to. *logger.Logger from the
// v1/logger package satisfies it.
//
//go:generate mockgen -source=logger.go -destination=mock_logger.go -package=store
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Security(msg string, fields ...map[string]interface{})
	LogDatabase(operation, table string, duration time.Duration, success bool, fields ...map[string]interface{})
}
