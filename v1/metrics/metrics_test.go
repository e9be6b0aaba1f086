package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/farmstore/v1/observability"
)

// find returns the metric of family name whose labels include want.
func find(t *testing.T, m *Metrics, name string, want map[string]string) *dto.Metric {
	t.Helper()

	families, err := m.Registry.Gather()
	require.NoError(t, err)

	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metrics:
		for _, metric := range f.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue metrics
				}
			}
			return metric
		}
	}
	return nil
}

func TestObserveOperation(t *testing.T) {
	m := NewMetrics(Config{Namespace: "farmstore", ServiceName: "test"})

	m.ObserveOperation(observability.OperationContext{
		Component: "store",
		Operation: "query",
		Resource:  "farms",
		Duration:  20 * time.Millisecond,
		Size:      3,
		Metadata:  map[string]interface{}{"attempts": 3},
	})
	m.ObserveOperation(observability.OperationContext{
		Component:   "store",
		Operation:   "query",
		Resource:    "farms",
		SubResource: "RATE_LIMIT_EXCEEDED",
		Error:       errors.New("rate limit exceeded"),
		Metadata:    map[string]interface{}{"attempts": 0},
	})

	ok := find(t, m, "farmstore_db_queries_total", map[string]string{"table": "farms", "status": "success", "service": "test"})
	require.NotNil(t, ok)
	assert.Equal(t, 1.0, ok.GetCounter().GetValue())

	failed := find(t, m, "farmstore_db_queries_total", map[string]string{"status": "error", "code": "RATE_LIMIT_EXCEEDED"})
	require.NotNil(t, failed)
	assert.Equal(t, 1.0, failed.GetCounter().GetValue())

	limited := find(t, m, "farmstore_db_rate_limited_total", map[string]string{"table": "farms"})
	require.NotNil(t, limited)
	assert.Equal(t, 1.0, limited.GetCounter().GetValue())

	retries := find(t, m, "farmstore_db_query_retries_total", map[string]string{"table": "farms"})
	require.NotNil(t, retries)
	assert.Equal(t, 2.0, retries.GetCounter().GetValue())

	rows := find(t, m, "farmstore_db_rows_total", map[string]string{"operation": "query"})
	require.NotNil(t, rows)
	assert.Equal(t, 3.0, rows.GetCounter().GetValue())

	duration := find(t, m, "farmstore_db_query_duration_seconds", map[string]string{"table": "farms"})
	require.NotNil(t, duration)
	assert.Equal(t, uint64(2), duration.GetHistogram().GetSampleCount())
}

func TestCreateGauge(t *testing.T) {
	m := NewMetrics(Config{Namespace: "farmstore", ServiceName: "test"})

	g := m.CreateGauge("table_rows", "Rows per table", []string{"table"})
	g.WithLabelValues("animals").Set(12)

	got := find(t, m, "farmstore_table_rows", map[string]string{"table": "animals", "service": "test"})
	require.NotNil(t, got)
	assert.Equal(t, 12.0, got.GetGauge().GetValue())
}

func TestMetricsEndpoint(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "test", EnableDefaultCollectors: true})
	m.ObserveOperation(observability.OperationContext{Operation: "run", Resource: "tasks"})

	rec := httptest.NewRecorder()
	m.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "db_queries_total{"), body)
	assert.Contains(t, body, `table="tasks"`)
	assert.Contains(t, body, "go_goroutines")
	assert.Equal(t, DefaultMetricsAddress, m.Server.Addr)
}
