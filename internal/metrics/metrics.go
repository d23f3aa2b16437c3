// Package metrics provides Prometheus instrumentation for the SDK:
// JSON-RPC call counts and latency by method, and terminal states of tracked
// operations. Registration is idempotent so embedding applications can reload
// without descriptor conflicts.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	rpcRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zcash",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Total number of JSON-RPC calls to the node",
		},
		[]string{"method", "status"}, // success, node_error, transport_error
	)

	rpcRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zcash",
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "Latency of JSON-RPC calls to the node",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zcash",
			Subsystem: "tracker",
			Name:      "operations_total",
			Help:      "Tracked operations by terminal state",
		},
		[]string{"state"}, // succeeded, failed, timed_out
	)

	operationPollsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "zcash",
			Subsystem: "tracker",
			Name:      "operation_polls_total",
			Help:      "Total number of operation status polls",
		},
	)
)

// RPCMetrics records gateway call outcomes.
type RPCMetrics struct{}

func NewRPCMetrics() *RPCMetrics {
	return &RPCMetrics{}
}

// RecordCall records one JSON-RPC round trip.
func (m *RPCMetrics) RecordCall(method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	rpcRequestsTotal.WithLabelValues(method, status).Inc()
	rpcRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// TrackerMetrics records operation tracking outcomes.
type TrackerMetrics struct{}

func NewTrackerMetrics() *TrackerMetrics {
	return &TrackerMetrics{}
}

// RecordPoll counts one status query.
func (m *TrackerMetrics) RecordPoll() {
	if m == nil {
		return
	}
	operationPollsTotal.Inc()
}

// RecordTerminal counts an operation reaching a terminal state.
func (m *TrackerMetrics) RecordTerminal(state string) {
	if m == nil {
		return
	}
	operationsTotal.WithLabelValues(state).Inc()
}
