package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Payout metrics
	PayoutsRequested prometheus.Counter
	PayoutsApproved  prometheus.Counter
	PayoutsRejected  prometheus.Counter
	PayoutsCompleted prometheus.Counter
	PayoutsFailed    prometheus.Counter
	PayoutDuration   prometheus.Histogram
	PayoutAmount     *prometheus.CounterVec

	// Ledger metrics
	BalanceComputations prometheus.Counter
	IntegrityErrors     prometheus.Counter

	// Sweep metrics
	SweepsRun         prometheus.Counter
	SweepDuration     prometheus.Histogram
	SweepParticipants prometheus.Histogram
	SweepErrors       prometheus.Counter

	// Gateway metrics
	GatewayRequests *prometheus.CounterVec
	GatewayRetries  prometheus.Counter
	GatewayDuration *prometheus.HistogramVec

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		PayoutsRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gopayout_payouts_requested_total",
			Help: "Total number of withdrawal records created",
		}),
		PayoutsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gopayout_payouts_approved_total",
			Help: "Total number of withdrawals approved",
		}),
		PayoutsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gopayout_payouts_rejected_total",
			Help: "Total number of withdrawals rejected",
		}),
		PayoutsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gopayout_payouts_completed_total",
			Help: "Total number of withdrawals completed by the gateway",
		}),
		PayoutsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gopayout_payouts_failed_total",
			Help: "Total number of withdrawals that failed at the gateway",
		}),
		PayoutDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gopayout_payout_duration_seconds",
			Help:    "Duration of payout operations",
			Buckets: prometheus.DefBuckets,
		}),
		PayoutAmount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gopayout_payout_amount_total",
				Help: "Total completed payout amount by settlement currency",
			},
			[]string{"currency"},
		),

		BalanceComputations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gopayout_balance_computations_total",
			Help: "Total number of available-balance computations",
		}),
		IntegrityErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gopayout_integrity_errors_total",
			Help: "Total number of ledger integrity violations detected",
		}),

		SweepsRun: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gopayout_sweeps_run_total",
			Help: "Total number of batch sweeps executed",
		}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gopayout_sweep_duration_seconds",
			Help:    "Duration of batch sweeps",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 300},
		}),
		SweepParticipants: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gopayout_sweep_participants",
			Help:    "Participants processed per sweep",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
		}),
		SweepErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gopayout_sweep_errors_total",
			Help: "Total per-participant errors collected during sweeps",
		}),

		GatewayRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gopayout_gateway_requests_total",
				Help: "Total gateway transfer calls by provider and status",
			},
			[]string{"provider", "status"},
		),
		GatewayRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gopayout_gateway_retries_total",
			Help: "Total gateway transfer retries",
		}),
		GatewayDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gopayout_gateway_duration_seconds",
				Help:    "Gateway transfer call duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),

		OutboxPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gopayout_outbox_published_total",
			Help: "Total outbox events published",
		}),
		OutboxErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gopayout_outbox_errors_total",
			Help: "Total outbox publish errors",
		}),
	}
}
