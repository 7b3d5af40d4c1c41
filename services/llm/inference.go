// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// =============================================================================
// Result Types
// =============================================================================

// Outcome classifies a single inference call.
type Outcome int

const (
	// OutcomeOK means the backend returned non-blank text.
	OutcomeOK Outcome = iota

	// OutcomeNetworkFailure covers unreachable endpoints, timeouts, non-2xx
	// statuses and malformed response bodies.
	OutcomeNetworkFailure

	// OutcomeEmptyCompletion means the call succeeded but produced no text.
	OutcomeEmptyCompletion
)

// String returns the label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNetworkFailure:
		return "network_failure"
	case OutcomeEmptyCompletion:
		return "empty_completion"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}

// ErrEmptyCompletion is attached to results whose completion was blank.
var ErrEmptyCompletion = errors.New("model returned an empty completion")

// Result is the outcome of one Inference.Generate call.
//
// # Description
//
// Result replaces error propagation on the inference path: callers switch on
// Outcome instead of catching failures. Err carries the underlying cause for
// logging only.
type Result struct {
	Text    string
	Outcome Outcome
	Err     error
}

// OK reports whether the result carries usable raw text.
func (r Result) OK() bool {
	return r.Outcome == OutcomeOK
}

// =============================================================================
// Inference Client
// =============================================================================

// ReasoningStopSequences stop generation at the hidden-reasoning delimiters.
var ReasoningStopSequences = []string{"<think>", "</think>"}

// InferenceConfig holds the fixed sampling options sent with every request.
type InferenceConfig struct {
	// MaxTokens caps the completion length (num_predict). Default: 512
	MaxTokens int

	// TopP nucleus sampling. Default: 0.9
	TopP float32

	// TopK sampling. Default: 40
	TopK int

	// RepeatPenalty discourages loops. Default: 1.1
	RepeatPenalty float32

	// Stop sequences. Default: ReasoningStopSequences
	Stop []string
}

// DefaultInferenceConfig returns the options the assistant ships with.
func DefaultInferenceConfig() InferenceConfig {
	stop := make([]string, len(ReasoningStopSequences))
	copy(stop, ReasoningStopSequences)
	return InferenceConfig{
		MaxTokens:     512,
		TopP:          0.9,
		TopK:          40,
		RepeatPenalty: 1.1,
		Stop:          stop,
	}
}

// Inference wraps an LLMClient with language hinting and result
// classification. It never retries; retry policy belongs to the caller.
type Inference struct {
	backend LLMClient
	cfg     InferenceConfig
}

// NewInference creates an Inference over backend. Zero-valued config fields
// take their defaults; a nil Stop slice keeps ReasoningStopSequences.
func NewInference(backend LLMClient, cfg InferenceConfig) *Inference {
	def := DefaultInferenceConfig()
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.TopP <= 0 {
		cfg.TopP = def.TopP
	}
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.RepeatPenalty <= 0 {
		cfg.RepeatPenalty = def.RepeatPenalty
	}
	if cfg.Stop == nil {
		cfg.Stop = def.Stop
	}
	return &Inference{backend: backend, cfg: cfg}
}

// Params builds the GenerationParams for one call at the given temperature.
func (i *Inference) Params(temperature float32) GenerationParams {
	return GenerationParams{
		Temperature:   Float32(temperature),
		TopK:          Int(i.cfg.TopK),
		TopP:          Float32(i.cfg.TopP),
		MaxTokens:     Int(i.cfg.MaxTokens),
		RepeatPenalty: Float32(i.cfg.RepeatPenalty),
		Stop:          i.cfg.Stop,
	}
}

// Generate sends prompt to the backend and classifies the outcome.
//
// # Description
//
// Prepends the language instruction for non-English hints, performs exactly
// one backend call and converts every failure into a Result instead of an
// error. Blank completions are reported as OutcomeEmptyCompletion.
//
// # Inputs
//
//   - ctx: Request context; cancellation ends the call as a network failure.
//   - prompt: Fully built prompt text.
//   - languageHint: Language code such as "en" or "hi".
//   - temperature: Sampling temperature for this attempt.
//
// # Outputs
//
//   - Result: Never has Outcome OK with blank Text.
func (i *Inference) Generate(ctx context.Context, prompt, languageHint string, temperature float32) Result {
	text, err := i.backend.Generate(ctx, WithLanguageHint(prompt, languageHint), i.Params(temperature))
	if err != nil {
		slog.Warn("Inference call failed", "error", err)
		return Result{Outcome: OutcomeNetworkFailure, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return Result{Outcome: OutcomeEmptyCompletion, Err: ErrEmptyCompletion}
	}
	return Result{Text: text, Outcome: OutcomeOK}
}
