package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by method (password|google) and result.
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authcore_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"method", "result"},
	)

	// ActiveSessions tracks sessions created minus sessions removed by this process.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "authcore_active_sessions",
			Help: "Number of active sessions",
		},
	)

	// SessionRenewals counts sliding-window session extensions.
	SessionRenewals = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authcore_session_renewals_total",
			Help: "Total number of sessions extended on validation",
		},
	)

	// TokensIssued counts single-use tokens minted per kind.
	TokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authcore_tokens_issued_total",
			Help: "Total number of single-use tokens issued",
		},
		[]string{"kind"},
	)

	// EmailDispatch records outbound email attempts by template and result.
	EmailDispatch = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authcore_email_dispatch_total",
			Help: "Total number of lifecycle emails dispatched",
		},
		[]string{"template", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authcore_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// MaintenanceRuns counts background cleanup executions by job and result.
	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authcore_maintenance_runs_total",
			Help: "Total number of maintenance job runs",
		},
		[]string{"job", "result"},
	)
)
