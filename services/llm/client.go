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

import "context"

// GenerationParams carries the sampling options for a single completion.
// Nil pointers fall back to the backend defaults.
type GenerationParams struct {
	Temperature   *float32 `json:"temperature"`
	TopK          *int     `json:"top_k"`
	TopP          *float32 `json:"top_p"`
	MaxTokens     *int     `json:"max_tokens"`
	RepeatPenalty *float32 `json:"repeat_penalty"`
	Stop          []string `json:"stop"`
}

// LLMClient defines the standard interface for any LLM backend
type LLMClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// Float32 returns a pointer to v. Handy for filling GenerationParams.
func Float32(v float32) *float32 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
