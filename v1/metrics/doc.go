// Package metrics exposes Prometheus metrics for farmstore.
//
// Each service owns an isolated registry whose metrics all carry a
// service="<ServiceName>" label. The registry is served on /metrics by an
// HTTP server whose lifetime is managed by the fx module.
//
// # Database Metrics
//
// *Metrics implements observability.Observer. Attached to a store it records:
//   - db_queries_total{table, operation, status, code}
//   - db_query_duration_seconds{table, operation}
//   - db_query_retries_total{table, operation}
//   - db_rate_limited_total{table}
//   - db_rows_total{table, operation}
//
// # Direct Usage (Without FX)
//
//	m := metrics.NewMetrics(metrics.Config{
//		Address:                 ":9090",
//		Namespace:               "farmstore",
//		ServiceName:             "farmstore",
//		EnableDefaultCollectors: true,
//	})
//	s := store.New(eng, store.Config{}).WithObserver(m)
//	go m.Server.ListenAndServe()
//
// # Custom Gauges
//
//	rows := m.CreateGauge("table_rows", "Rows per table", []string{"table"})
//	rows.WithLabelValues("farms").Set(42)
//
// # FX Module Integration
//
//	app := fx.New(
//		metrics.FXModule, // provides *Metrics, MetricsCollector and observability.Observer
//		store.FXModule,   // picks the observer up
//	)
package metrics
