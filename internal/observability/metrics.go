// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec
	RPCRetries     prometheus.Counter

	// Scan metrics
	MarketsScanned     prometheus.Counter
	PredictionsScanned prometheus.Counter
	DecodeFailures     *prometheus.CounterVec

	// Transaction lifecycle metrics
	TransactionsSubmitted prometheus.Counter
	TransactionOutcomes   *prometheus.CounterVec
	ConfirmationAttempts  prometheus.Histogram
	ConfirmationLatency   prometheus.Histogram

	// Snapshot sync metrics
	SnapshotsStored    *prometheus.CounterVec
	SnapshotSyncErrors *prometheus.CounterVec
	LastSuccessfulSync prometheus.Gauge

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "foresight"
	}

	return &Metrics{
		// RPC metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_errors_total",
			Help:      "Total number of RPC call errors by method",
		}, []string{"method"}),
		RPCRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_retries_total",
			Help:      "Total number of RPC call retries",
		}),

		// Scan metrics
		MarketsScanned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "markets_scanned_total",
			Help:      "Total number of market accounts decoded",
		}),
		PredictionsScanned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "predictions_scanned_total",
			Help:      "Total number of prediction accounts decoded",
		}),
		DecodeFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "decode_failures_total",
			Help:      "Total number of account decode failures by account type",
		}, []string{"account_type"}),

		// Transaction lifecycle metrics
		TransactionsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "txn",
			Name:      "submitted_total",
			Help:      "Total number of transactions submitted",
		}),
		TransactionOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "txn",
			Name:      "outcomes_total",
			Help:      "Total number of transaction outcomes by final state",
		}, []string{"state"}),
		ConfirmationAttempts: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "txn",
			Name:      "confirmation_attempts",
			Help:      "Number of status polls before a transaction settled",
			Buckets:   []float64{1, 2, 3, 4, 5, 7, 10},
		}),
		ConfirmationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "txn",
			Name:      "confirmation_latency_seconds",
			Help:      "Time from submission to settlement in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),

		// Snapshot sync metrics
		SnapshotsStored: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "snapshots_stored_total",
			Help:      "Total number of snapshots stored by kind",
		}, []string{"kind"}),
		SnapshotSyncErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "errors_total",
			Help:      "Total number of snapshot sync errors by kind",
		}, []string{"kind"}),
		LastSuccessfulSync: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "last_successful_timestamp",
			Help:      "Unix timestamp of the last successful snapshot sync",
		}),

		// Cache metrics
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits by cache name",
		}, []string{"cache"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses by cache name",
		}, []string{"cache"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRPCCall observes one RPC call. durationSeconds covers the full
// call including retries.
func RecordRPCCall(method string, durationSeconds float64, err error) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(durationSeconds)
	if err != nil {
		DefaultMetrics.RPCCallErrors.WithLabelValues(method).Inc()
	}
}

// RecordDecodeFailure increments the decode failure counter for an account type.
func RecordDecodeFailure(accountType string) {
	DefaultMetrics.DecodeFailures.WithLabelValues(accountType).Inc()
}

// RecordTransactionOutcome increments the outcome counter for a final state.
func RecordTransactionOutcome(state string) {
	DefaultMetrics.TransactionOutcomes.WithLabelValues(state).Inc()
}

// RecordSnapshotStored increments the stored snapshot counter for a kind
// ("market" or "profile").
func RecordSnapshotStored(kind string, count int) {
	DefaultMetrics.SnapshotsStored.WithLabelValues(kind).Add(float64(count))
}
