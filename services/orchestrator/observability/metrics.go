// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the FarminAI service.
//
// # Description
//
// Metrics cover the assistant pipeline and the HTTP surface:
//   - Inference calls by outcome and their latency
//   - Answers by outcome (success, degraded, fallback, clarification)
//   - Corrective re-prompts and whether they rescued the answer
//   - HTTP requests by route and status
//
// Metrics are exposed via /metrics. Use with Prometheus + Grafana for
// dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"strconv"
	"time"

	"github.com/AleutianAI/FarminAI/services/assistant"
	"github.com/AleutianAI/FarminAI/services/llm"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "farminai"

const (
	assistantSubsystem = "assistant"
	httpSubsystem      = "http"
)

// Metrics holds all Prometheus collectors for the service.
//
// # Description
//
// Metrics implements assistant.Observer so the Orchestrator reports into it
// directly. Create one per registry with NewMetrics.
//
// # Fields
//
//   - InferenceTotal: Inference calls. Labels: outcome
//   - InferenceSeconds: Inference latency. Labels: outcome
//   - AnswersTotal: Final answers. Labels: outcome
//   - AnswerAttempts: Generation attempts spent per answer
//   - CorrectionsTotal: Corrective re-prompts. Labels: result (rescued, failed)
//   - HTTPRequestsTotal: HTTP requests. Labels: route, method, status
//   - HTTPRequestSeconds: HTTP latency. Labels: route, method
type Metrics struct {
	InferenceTotal     *prometheus.CounterVec
	InferenceSeconds   *prometheus.HistogramVec
	AnswersTotal       *prometheus.CounterVec
	AnswerAttempts     prometheus.Histogram
	CorrectionsTotal   *prometheus.CounterVec
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPRequestSeconds *prometheus.HistogramVec
}

// NewMetrics creates and registers all collectors on reg.
//
// # Description
//
// Uses promauto.With so tests can pass a private prometheus.NewRegistry()
// and production code can pass prometheus.DefaultRegisterer.
//
// # Inputs
//
//   - reg: Registerer to attach collectors to. Nil uses the default registry.
//
// # Outputs
//
//   - *Metrics: Ready-to-use metrics.
//
// # Limitations
//
//   - Panics if called twice on the same registry (duplicate registration).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		InferenceTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: assistantSubsystem,
				Name:      "inference_requests_total",
				Help:      "Total inference calls by outcome",
			},
			[]string{"outcome"},
		),

		InferenceSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: assistantSubsystem,
				Name:      "inference_duration_seconds",
				Help:      "Inference call latency in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 35, 60},
			},
			[]string{"outcome"},
		),

		AnswersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: assistantSubsystem,
				Name:      "answers_total",
				Help:      "Total answers by outcome",
			},
			[]string{"outcome"},
		),

		AnswerAttempts: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: assistantSubsystem,
				Name:      "answer_attempts",
				Help:      "Generation attempts spent per answer",
				Buckets:   []float64{0, 1, 2, 3, 4, 5},
			},
		),

		CorrectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: assistantSubsystem,
				Name:      "corrections_total",
				Help:      "Corrective re-prompts by result",
			},
			[]string{"result"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: httpSubsystem,
				Name:      "requests_total",
				Help:      "Total HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),

		HTTPRequestSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: httpSubsystem,
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}
}

// =============================================================================
// assistant.Observer
// =============================================================================

// ObserveInference records one inference call.
func (m *Metrics) ObserveInference(outcome llm.Outcome, elapsed time.Duration) {
	m.InferenceTotal.WithLabelValues(outcome.String()).Inc()
	m.InferenceSeconds.WithLabelValues(outcome.String()).Observe(elapsed.Seconds())
}

// ObserveCorrection records a corrective re-prompt.
func (m *Metrics) ObserveCorrection(rescued bool) {
	result := "failed"
	if rescued {
		result = "rescued"
	}
	m.CorrectionsTotal.WithLabelValues(result).Inc()
}

// ObserveAnswer records the final outcome of one question.
func (m *Metrics) ObserveAnswer(outcome assistant.AnswerOutcome, attempts int) {
	m.AnswersTotal.WithLabelValues(string(outcome)).Inc()
	m.AnswerAttempts.Observe(float64(attempts))
}

// =============================================================================
// HTTP
// =============================================================================

// GinMiddleware counts requests by matched route pattern. Unmatched paths are
// reported under "unmatched" to keep label cardinality bounded.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestSeconds.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

var _ assistant.Observer = (*Metrics)(nil)
