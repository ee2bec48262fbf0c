package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fedbridge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fedbridge_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fedbridge_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Snapshot store metrics
	SnapshotCommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fedbridge_snapshot_commits_total",
			Help: "Total number of snapshot store commits",
		},
		[]string{"status"},
	)

	SnapshotKeys = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fedbridge_snapshot_keys",
			Help: "Number of keys in a federation's snapshot mirror",
		},
		[]string{"federation_id"},
	)

	SnapshotBlobBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fedbridge_snapshot_blob_bytes",
			Help: "Serialized size of the last committed snapshot blob",
		},
		[]string{"federation_id"},
	)

	// Reconciler metrics
	ReconcilerTasksActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fedbridge_reconciler_tasks_active",
			Help: "Number of in-flight operation reconciler tasks",
		},
	)

	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fedbridge_operations_total",
			Help: "Total number of reconciled operations by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	RecordPersistFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fedbridge_record_persist_failures_total",
			Help: "Total number of swallowed operation record persistence failures",
		},
		[]string{"kind"},
	)

	// Gateway metrics
	GatewaySelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fedbridge_gateway_selections_total",
			Help: "Total number of gateway selections by path taken",
		},
		[]string{"path"},
	)

	GatewayCacheRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fedbridge_gateway_cache_refreshes_total",
			Help: "Total number of background gateway cache refreshes",
		},
		[]string{"status"},
	)

	// UI bridge metrics
	BridgeMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fedbridge_bridge_messages_total",
			Help: "Total number of messages sent to the UI bridge channel",
		},
		[]string{"type"},
	)

	// Build info
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fedbridge_build_info",
			Help: "Build information",
		},
		[]string{"version", "go_version"},
	)
)
