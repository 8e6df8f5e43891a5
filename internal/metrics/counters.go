// Package metrics holds the Prometheus instruments shared across the query
// layer. Recording is fire-and-forget: a metrics failure must never change
// the outcome of the operation being counted.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queryOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "julep_query_operations_total",
		Help: "Completed domain operations, keyed by operation name.",
	}, []string{"operation"})

	queryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "julep_query_failures_total",
		Help: "Domain operations that returned an error, keyed by operation name.",
	}, []string{"operation"})
)

// CountOperation increments the success counter for the named operation.
func CountOperation(name string) {
	defer func() { _ = recover() }()
	queryOperations.WithLabelValues(name).Inc()
}

// CountFailure increments the failure counter for the named operation.
func CountFailure(name string) {
	defer func() { _ = recover() }()
	queryFailures.WithLabelValues(name).Inc()
}
