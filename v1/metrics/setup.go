package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the Prometheus registry of the service and the database
// metrics fed by the store through ObserveOperation.
type Metrics struct {
	// Server defines the HTTP server used to expose the /metrics endpoint.
	Server *http.Server

	// Registry is the Prometheus registry where all metrics are registered.
	// Each service maintains its own isolated registry to prevent metric name collisions.
	Registry *prometheus.Registry

	registerer prometheus.Registerer
	namespace  string

	queriesTotal  *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	retriesTotal  *prometheus.CounterVec
	rateLimited   *prometheus.CounterVec
	rowsTotal     *prometheus.CounterVec
}

// NewMetrics creates the registry, registers the database metrics and, when
// enabled, the Go runtime and process collectors, and prepares the HTTP
// server exposing them.
func NewMetrics(cfg Config) *Metrics {
	if cfg.Address == "" {
		cfg.Address = DefaultMetricsAddress
	}

	// Create a new isolated Prometheus registry for this service.
	registry := prometheus.NewRegistry()

	// All metrics emitted by this service include the label service="<cfg.ServiceName>".
	wrappedRegistry := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)

	m := &Metrics{
		Registry:   registry,
		registerer: wrappedRegistry,
		namespace:  cfg.Namespace,
	}

	m.queriesTotal = createCounterVec(cfg.Namespace, "db_queries_total",
		"Total number of database operations by table, operation, status and error code",
		[]string{"table", "operation", "status", "code"})
	m.queryDuration = createHistogramVec(cfg.Namespace, "db_query_duration_seconds",
		"Duration of database operations in seconds, including retries",
		[]string{"table", "operation"}, prometheus.DefBuckets)
	m.retriesTotal = createCounterVec(cfg.Namespace, "db_query_retries_total",
		"Total number of retried database attempts",
		[]string{"table", "operation"})
	m.rateLimited = createCounterVec(cfg.Namespace, "db_rate_limited_total",
		"Total number of operations rejected by the per-actor rate limiter",
		[]string{"table"})
	m.rowsTotal = createCounterVec(cfg.Namespace, "db_rows_total",
		"Total number of rows returned or changed",
		[]string{"table", "operation"})

	wrappedRegistry.MustRegister(
		m.queriesTotal,
		m.queryDuration,
		m.retriesTotal,
		m.rateLimited,
		m.rowsTotal,
	)

	// These provide essential runtime metrics for Go processes:
	//   - GoCollector: Memory usage, goroutines, GC stats
	//   - ProcessCollector: CPU, file descriptors, memory stats
	//   - BuildInfoCollector: Binary version/build info
	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	m.Server = &http.Server{
		Addr:    cfg.Address,
		Handler: mux,
	}
	return m
}
