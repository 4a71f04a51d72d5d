package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Purchase flow counters and histograms, partitioned by outcome.

var (
	// Widget
	PurchaseSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "purchase",
		Subsystem: "widget",
		Name:      "submissions_total",
		Help:      "Total purchase submissions by terminal outcome",
	}, []string{"outcome"})

	PurchaseSubmissionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "purchase",
		Subsystem: "widget",
		Name:      "submissions_rejected_total",
		Help:      "Submissions refused before the pipeline started",
	}, []string{"reason"})

	PurchaseSubmissionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "purchase",
		Subsystem: "widget",
		Name:      "submission_duration_seconds",
		Help:      "End-to-end purchase submission duration",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"outcome"})

	PurchaseLamportsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "purchase",
		Subsystem: "widget",
		Name:      "lamports_confirmed_total",
		Help:      "Total lamports transferred by confirmed purchases",
	})

	PurchaseInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "purchase",
		Subsystem: "widget",
		Name:      "in_flight",
		Help:      "1 while a submission pipeline is running",
	})

	// Wallet
	WalletConnectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "purchase",
		Subsystem: "wallet",
		Name:      "connects_total",
		Help:      "Wallet connection requests by result",
	}, []string{"result"})

	WalletSignaturesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "purchase",
		Subsystem: "wallet",
		Name:      "signatures_total",
		Help:      "Wallet signature requests by result",
	}, []string{"result"})

	// Confirmation
	ConfirmationPollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "purchase",
		Subsystem: "confirmation",
		Name:      "polls_total",
		Help:      "Signature status polls issued while awaiting confirmation",
	}, []string{"chain", "network"})

	ConfirmationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "purchase",
		Subsystem: "confirmation",
		Name:      "wait_duration_seconds",
		Help:      "Time from broadcast until the signature reached the target commitment",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
	}, []string{"chain", "network"})

	// RPC
	RPCCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "purchase",
		Subsystem: "rpc",
		Name:      "calls_total",
		Help:      "Total RPC calls by method and status",
	}, []string{"chain", "method", "status"})

	RPCRateLimitWaits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "purchase",
		Subsystem: "rpc",
		Name:      "rate_limit_waits_total",
		Help:      "Total times RPC calls waited for rate limiter",
	}, []string{"chain"})

	RPCCircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "purchase",
		Subsystem: "rpc",
		Name:      "circuit_breaker_state",
		Help:      "RPC endpoint breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"chain", "network"})

	// HTTP surface
	HTTPRateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "purchase",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the per-client rate limiter",
	}, []string{"path"})

	// Alerts
	AlertsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "purchase",
		Subsystem: "alert",
		Name:      "sent_total",
		Help:      "Total alerts sent",
	}, []string{"channel", "alert_type"})

	AlertsCooldownSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "purchase",
		Subsystem: "alert",
		Name:      "cooldown_skipped_total",
		Help:      "Total alerts skipped due to cooldown",
	}, []string{"channel", "alert_type"})
)
