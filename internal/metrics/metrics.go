// Package metrics holds the prometheus collectors shared by the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ClassifierRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_classifier_requests_total",
		Help: "Intent classifications by source (oracle or fallback) and intent",
	}, []string{"source", "intent"})

	ClassifierFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_classifier_fallback_total",
		Help: "Oracle classifications that fell back to the rule table, by reason",
	}, []string{"reason"})

	OracleLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "leave_oracle_request_duration_seconds",
		Help:    "Latency of the classification oracle call",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8},
	})

	LedgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_ledger_operations_total",
		Help: "Ledger bucket moves by operation and leave type",
	}, []string{"operation", "leave_type"})

	LifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_application_transitions_total",
		Help: "Application status transitions",
	}, []string{"from", "to"})

	OutboxEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_outbox_events_total",
		Help: "Outbox relay outcomes: sent, retry or dead",
	}, []string{"outcome", "event_type"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leave_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	}, []string{"method", "route"})
)
