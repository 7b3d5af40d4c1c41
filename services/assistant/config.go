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

import "time"

// DefaultSystemInstruction frames every prompt sent to the model.
const DefaultSystemInstruction = "You are FarminAI, a helpful and friendly assistant for farmers. " +
	"Give clear, practical and locally relevant advice on crops, soil health, weather, irrigation, " +
	"pest and disease management, livestock, government schemes and market prices. " +
	"Keep answers brief and use simple language without jargon. " +
	"If you don't know something, say so honestly rather than guessing."

// DefaultClarificationMessage is the last-resort answer when neither the model
// nor the fallback table can help.
const DefaultClarificationMessage = "I couldn't find an answer to that right now. " +
	"Could you tell me which farming topic you mean: crops, soil, irrigation, pests, fertilizers or animals?"

// Config tunes the answer pipeline.
//
// Zero values are replaced by the defaults in DefaultConfig when passed to
// NewOrchestrator.
type Config struct {
	// Retries is the number of outer drafting attempts.
	Retries int `yaml:"retries"`

	// Backoff is the pause between failed attempts. Zero takes the default;
	// a negative value (see NoBackoff) retries immediately.
	Backoff time.Duration `yaml:"backoff"`

	// HistoryTurns caps how many past turns are echoed into a prompt.
	HistoryTurns int `yaml:"history_turns"`

	// Temperatures is indexed by attempt number; attempts past the end reuse
	// the last value.
	Temperatures []float32 `yaml:"temperatures"`

	// MinAnswerChars is the length at or below which a cleaned completion is
	// treated as empty.
	MinAnswerChars int `yaml:"min_answer_chars"`

	SystemInstruction    string `yaml:"system_instruction"`
	ClarificationMessage string `yaml:"clarification_message"`
}

// NoBackoff disables the pause between failed attempts.
const NoBackoff time.Duration = -1

// DefaultConfig returns the stock pipeline settings.
func DefaultConfig() Config {
	return Config{
		Retries:              2,
		Backoff:              2 * time.Second,
		HistoryTurns:         8,
		Temperatures:         []float32{0.7, 0.5, 0.3},
		MinAnswerChars:       10,
		SystemInstruction:    DefaultSystemInstruction,
		ClarificationMessage: DefaultClarificationMessage,
	}
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Retries <= 0 {
		c.Retries = d.Retries
	}
	if c.Backoff == 0 {
		c.Backoff = d.Backoff
	}
	if c.HistoryTurns <= 0 {
		c.HistoryTurns = d.HistoryTurns
	}
	if len(c.Temperatures) == 0 {
		c.Temperatures = d.Temperatures
	}
	if c.MinAnswerChars <= 0 {
		c.MinAnswerChars = d.MinAnswerChars
	}
	if c.SystemInstruction == "" {
		c.SystemInstruction = d.SystemInstruction
	}
	if c.ClarificationMessage == "" {
		c.ClarificationMessage = d.ClarificationMessage
	}
	return c
}

// Temperature returns the sampling temperature for a zero-based attempt.
func (c Config) Temperature(attempt int) float32 {
	temps := c.Temperatures
	if len(temps) == 0 {
		temps = DefaultConfig().Temperatures
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(temps) {
		return temps[len(temps)-1]
	}
	return temps[attempt]
}
