// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AleutianAI/FarminAI/services/assistant"
	"github.com/AleutianAI/FarminAI/services/llm"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestMetrics registers on a private registry so tests don't collide with
// the global one.
func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewMetrics(reg), reg
}

func TestMetrics_ObserveInference(t *testing.T) {
	m, reg := newTestMetrics(t)

	m.ObserveInference(llm.OutcomeOK, 1200*time.Millisecond)
	m.ObserveInference(llm.OutcomeOK, 300*time.Millisecond)
	m.ObserveInference(llm.OutcomeNetworkFailure, 35*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.InferenceTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InferenceTotal.WithLabelValues("network_failure")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InferenceTotal.WithLabelValues("empty_completion")))

	count, err := testutil.GatherAndCount(reg, "farminai_assistant_inference_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMetrics_ObserveAnswer(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.ObserveAnswer(assistant.AnswerSuccess, 1)
	m.ObserveAnswer(assistant.AnswerFallback, 2)
	m.ObserveAnswer(assistant.AnswerFallback, 2)
	m.ObserveAnswer(assistant.AnswerClarification, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnswersTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AnswersTotal.WithLabelValues("fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnswersTotal.WithLabelValues("clarification")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.AnswerAttempts))
}

func TestMetrics_ObserveCorrection(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.ObserveCorrection(true)
	m.ObserveCorrection(false)
	m.ObserveCorrection(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CorrectionsTotal.WithLabelValues("rescued")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CorrectionsTotal.WithLabelValues("failed")))
}

func TestMetrics_GinMiddleware(t *testing.T) {
	m, _ := newTestMetrics(t)

	router := gin.New()
	router.Use(m.GinMiddleware())
	router.GET("/v1/images/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	for _, path := range []string{"/v1/images/1", "/v1/images/2", "/nowhere"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/v1/images/:id", "GET", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("unmatched", "GET", "404")))
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}
