package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChargesCreatedTotal counts charges created, labeled by currency
	ChargesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "charges_created_total",
			Help: "Total number of charges created",
		},
		[]string{"currency"},
	)

	// IdempotentHitsTotal counts create requests answered from an existing charge
	IdempotentHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "charges_idempotent_hits_total",
			Help: "Total number of charge creations deduplicated by idempotency key",
		},
	)

	// PaymentsIssuedTotal counts successful payment issuances, labeled by method
	PaymentsIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_issued_total",
			Help: "Total number of payment instruments issued",
		},
		[]string{"method"},
	)

	// ProviderRequestsTotal counts provider calls, labeled by operation and outcome
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total number of payment provider requests",
		},
		[]string{"operation", "outcome"},
	)

	// ProviderRequestDuration measures provider call latency
	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Duration of payment provider requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// SettlementsProcessedTotal counts settlement transitions applied by the
	// worker, labeled by resulting status
	SettlementsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlements_processed_total",
			Help: "Total number of settlements picked up for processing",
		},
		[]string{"status"},
	)

	// ReconciliationRunsTotal counts finished reconciliation runs by final status
	ReconciliationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciliation_runs_total",
			Help: "Total number of reconciliation runs finished",
		},
		[]string{"status"},
	)
)
