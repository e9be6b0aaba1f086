package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Aleph-Alpha/farmstore/v1/observability"
)

// MetricsCollector is the surface of *Metrics used by the rest of the service.
type MetricsCollector interface {
	// ObserveOperation records a completed store operation.
	observability.Observer

	// CreateGauge creates a new GaugeVec metric and registers it.
	CreateGauge(name, help string, labels []string) *prometheus.GaugeVec
}

// Logger is the logging surface used by the metrics server lifecycle.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}
