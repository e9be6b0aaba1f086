package metrics

import (
	"github.com/Aleph-Alpha/farmstore/v1/observability"
)

const rateLimitedCode = "RATE_LIMIT_EXCEEDED"

// ObserveOperation records one completed store operation. It makes *Metrics
// an observability.Observer, so it can be handed to store.WithObserver.
func (m *Metrics) ObserveOperation(oc observability.OperationContext) {
	status := "success"
	if oc.Error != nil {
		status = "error"
	}

	m.queriesTotal.WithLabelValues(oc.Resource, oc.Operation, status, oc.SubResource).Inc()
	m.queryDuration.WithLabelValues(oc.Resource, oc.Operation).Observe(oc.Duration.Seconds())

	if oc.SubResource == rateLimitedCode {
		m.rateLimited.WithLabelValues(oc.Resource).Inc()
	}
	if attempts, ok := oc.Metadata["attempts"].(int); ok && attempts > 1 {
		m.retriesTotal.WithLabelValues(oc.Resource, oc.Operation).Add(float64(attempts - 1))
	}
	if oc.Size > 0 {
		m.rowsTotal.WithLabelValues(oc.Resource, oc.Operation).Add(float64(oc.Size))
	}
}

var _ observability.Observer = (*Metrics)(nil)
