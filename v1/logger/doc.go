// Package logger provides structured logging for farmstore on top of zap.
//
// # Architecture
//
// Consumers declare the small logger interface they need next to their own
// code (see store.Logger) and *Logger satisfies it. All methods take a
// message, an optional error and optional field maps:
//
//	log.Info("farm created", nil, map[string]interface{}{"farm_id": id})
//	log.Error("migration failed", err, map[string]interface{}{"model": "Animal"})
//
// Two domain specific helpers exist besides the level methods:
//   - Security logs events tagged category=security (rejected queries)
//   - LogDatabase logs one database operation with table, duration and outcome
//
// # Direct Usage (Without FX)
//
//	import "github.com/Aleph-Alpha/farmstore/v1/logger"
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:         logger.Info,
//		ServiceName:   "farmstore",
//		EnableTracing: true,
//	})
//
//	// Adds trace_id and span_id when ctx carries a span
//	log.InfoWithContext(ctx, "processing request", nil)
//
// # FX Module Integration
//
//	app := fx.New(
//		logger.FXModule,
//		fx.Provide(func() logger.Config {
//			return logger.Config{Level: "info", ServiceName: "farmstore"}
//		}),
//	)
//
// # Configuration
//
// Loaded through internal/config:
//
//	FARMSTORE_LOGGER__LEVEL=debug
//	FARMSTORE_LOGGER__ENABLE_TRACING=true
//
// # Thread Safety
//
// All methods are safe for concurrent use by multiple goroutines.
package logger
