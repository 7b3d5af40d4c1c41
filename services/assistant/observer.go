// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package assistant

import (
	"time"

	"github.com/AleutianAI/FarminAI/services/llm"
)

// AnswerOutcome labels how an Answer run finished.
type AnswerOutcome string

const (
	// AnswerSuccess is a draft or corrected answer that covers the question.
	AnswerSuccess AnswerOutcome = "success"
	// AnswerDegraded is an off-topic draft kept after a failed correction.
	AnswerDegraded AnswerOutcome = "degraded"
	// AnswerFallback is a canned answer from the fallback table.
	AnswerFallback AnswerOutcome = "fallback"
	// AnswerClarification is the request to name a farming subtopic.
	AnswerClarification AnswerOutcome = "clarification"
)

// Observer receives pipeline events. The orchestrator service implements it
// with Prometheus collectors.
type Observer interface {
	ObserveInference(outcome llm.Outcome, elapsed time.Duration)
	ObserveCorrection(covered bool)
	ObserveAnswer(outcome AnswerOutcome, attempts int)
}

type noopObserver struct{}

func (noopObserver) ObserveInference(llm.Outcome, time.Duration) {}
func (noopObserver) ObserveCorrection(bool)                      {}
func (noopObserver) ObserveAnswer(AnswerOutcome, int)            {}
