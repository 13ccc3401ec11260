package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "migym_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "migym_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	storeOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "migym_store_operations_total",
		Help: "Key-value store calls by backend, operation and result",
	}, []string{"backend", "op", "result"})

	storeOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "migym_store_operation_duration_seconds",
		Help:    "Latency of key-value store calls",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"backend", "op"})

	degradedReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "migym_degraded_reads_total",
		Help: "Reads that fell back to an empty collection because the medium failed",
	}, []string{"collection"})

	paymentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "migym_payments_processed_total",
		Help: "processPayment outcomes: completed, partial, replayed, failed",
	}, []string{"result"})

	enrollmentChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "migym_enrollment_changes_total",
		Help: "Enrollments created and cancelled",
	}, []string{"action"})

	reconcileRepairs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "migym_reconcile_repairs_total",
		Help: "Client payment flags repaired by the reconciler",
	})

	gatewayCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "migym_gateway_calls_total",
		Help: "Payment gateway checkout calls by result",
	}, []string{"result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveStoreOp records one key-value store call
func ObserveStoreOp(backend, op, result string, duration time.Duration) {
	storeOps.WithLabelValues(backend, op, result).Inc()
	storeOpDuration.WithLabelValues(backend, op).Observe(duration.Seconds())
}

// ObserveDegradedRead counts a read served as empty after a medium failure
func ObserveDegradedRead(collection string) {
	degradedReads.WithLabelValues(collection).Inc()
}

// ObservePayment counts a processPayment outcome
func ObservePayment(result string) {
	paymentsProcessed.WithLabelValues(result).Inc()
}

// ObserveEnrollment counts an enroll or cancel
func ObserveEnrollment(action string) {
	enrollmentChanges.WithLabelValues(action).Inc()
}

// ObserveReconcileRepairs adds n repaired flags
func ObserveReconcileRepairs(n int) {
	reconcileRepairs.Add(float64(n))
}

// ObserveGatewayCall counts a gateway call result
func ObserveGatewayCall(result string) {
	gatewayCalls.WithLabelValues(result).Inc()
}
