// Package telemetry provides application-level observability for the config registry.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// served on the side-channel HTTP server started by main.go:
//
//	GET http://<host>:<CFR_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090. The endpoint is not served by the Gin router.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Namespace lifecycle operation outcomes
//   - Rows soft-deleted by namespace cascades
//   - Audit shipping outcomes
//   - Database connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as
// /api/v1/apps/:appId/clusters/:clusterName/namespaces/:namespaceName) rather than the
// raw request URL, so app ids and namespace names never become label values.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, labelled by method, route template, and status code.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - p99 latency per route:             histogram_quantile(0.99, sum by (path, le) (rate(http_request_duration_seconds_bucket[5m])))
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Namespace lifecycle metrics, recorded by services.NamespaceService.
//
// NamespaceOperationsTotal is a CounterVec with labels {operation, result}. operation is
// one of save, update, delete, delete_cluster, create_private; result is "success" or
// the apperrors kind that ended the operation (invalid_argument, not_found, conflict,
// atomicity_failure).
//
// Example PromQL queries:
//   - Conflict rate on create:  rate(namespace_operations_total{operation="save",result="conflict"}[5m])
//   - Failed cascades:          increase(namespace_operations_total{operation="delete",result="atomicity_failure"}[1h])
//
// NamespaceCascadeDeletedRowsTotal is a CounterVec with label {entity} (item, commit,
// release) counting child rows soft-deleted by committed namespace deletions.
var (
	NamespaceOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "namespace_operations_total",
			Help: "Total number of namespace lifecycle operations, by operation and result.",
		},
		[]string{"operation", "result"},
	)

	NamespaceCascadeDeletedRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "namespace_cascade_deleted_rows_total",
			Help: "Total number of child rows soft-deleted by namespace deletions, by entity.",
		},
		[]string{"entity"},
	)
)

// AuditRecordsShippedTotal is a CounterVec with label {result} (success, failure)
// incremented once per audit record handed to the configured external shippers.
// Shipping happens after commit, so failures here never affect a mutation.
var AuditRecordsShippedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "audit_records_shipped_total",
		Help: "Total number of audit records shipped to external destinations, by result.",
	},
	[]string{"result"},
)

// DBOpenConnections is a Gauge that tracks the number of open connections currently
// held by the sql.DB connection pool. It is sampled every 30 seconds by
// StartDBStatsCollector rather than per-request.
//
// Example PromQL queries:
//   - Pool utilisation (%): db_open_connections / <CFR_DATABASE_MAX_CONNECTIONS> * 100
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB connection
// pool statistics every 30 seconds and updates the DBOpenConnections gauge.
// The goroutine exits when the database becomes unreachable, which happens when the
// application shuts down and closes the pool.
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
