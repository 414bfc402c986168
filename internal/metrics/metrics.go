// Package metrics declara as séries Prometheus do serviço. Tudo via
// promauto: importar o pacote já registra no registry default que o
// /metrics expõe.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by path, method and status",
	}, []string{"path", "method", "status"})

	AuthzDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authz_decisions_total",
		Help: "Authorization decisions by resource, action and outcome",
	}, []string{"resource", "action", "decision"})

	AuthzDecisionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "authz_decision_seconds",
		Help:    "Time taken to evaluate an authorization decision",
		Buckets: prometheus.ExponentialBuckets(1e-6, 10, 6),
	})

	SSEConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sse_connections",
		Help: "Currently subscribed SSE clients",
	})

	// Jobs vão de envio de e-mail a chamada de LLM, então os buckets
	// cobrem de 10ms a quase três minutos.
	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_processing_seconds",
		Help:    "Job processing time by type and terminal status",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"type", "status"})

	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobs_processed_total",
		Help: "Jobs finished by type and terminal status",
	}, []string{"type", "status"})

	JobRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "job_retries_total",
		Help: "Retries scheduled after transient job failures",
	}, []string{"type"})

	JobsDeadLetter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobs_dead_letter_total",
		Help: "Jobs parked in the dead letter queue",
	}, []string{"type"})
)
