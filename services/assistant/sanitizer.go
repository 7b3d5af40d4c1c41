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
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMinAnswerChars is the length at or below which cleaned text is
// considered degenerate.
const DefaultMinAnswerChars = 10

// sanitizeRule is one step of the cleaning pipeline.
type sanitizeRule struct {
	name    string
	pattern *regexp.Regexp
}

// sanitizeRules run in order. Every rule deletes its matches, so each pass
// either shrinks the text or leaves it untouched.
var sanitizeRules = []sanitizeRule{
	{
		name:    "reasoning_block",
		pattern: regexp.MustCompile(`(?is)<think>.*?</think>`),
	},
	{
		name:    "reasoning_marker",
		pattern: regexp.MustCompile(`(?i)</?think>`),
	},
	{
		name:    "role_token",
		pattern: regexp.MustCompile(`(?i)<[|｜]\s*/?\s*(?:im_start|im_end|im_sep|endoftext|begin[▁_]of[▁_]sentence|end[▁_]of[▁_]sentence|user|assistant|system)\s*[|｜]>`),
	},
	{
		name:    "role_label",
		pattern: regexp.MustCompile(`(?im)^[ \t]*(?:user|assistant|system)[ \t]*:[ \t]*`),
	},
	{
		name:    "leading_filler",
		pattern: regexp.MustCompile(`(?i)^\s*(?:let me think|the user is asking|the user asked|alright|okay|well|sure|hmm+|now|ok|so)(?:[\s,.;:!?…–—]+|$)`),
	},
	{
		name:    "leading_punctuation",
		pattern: regexp.MustCompile(`^[\s,.;:!?\-–—…]+`),
	},
}

// Clean strips reasoning blocks, role echoes and leading filler from a raw
// completion.
//
// # Description
//
// Rules are applied in a fixed order and the whole list is re-run until the
// text stops changing, so Clean(Clean(x)) == Clean(x). Filler and
// punctuation rules are anchored to the start of the text and never touch
// the middle of an answer.
//
// # Outputs
//
//   - string: The cleaned text, or "" when degenerate.
//   - bool: False when the cleaned text has DefaultMinAnswerChars runes or
//     fewer.
//
// # Examples
//
//	Clean("<think>hmm</think>Okay, drip irrigation delivers water directly to roots.")
//	// "drip irrigation delivers water directly to roots.", true
func Clean(raw string) (string, bool) {
	return CleanWithMin(raw, DefaultMinAnswerChars)
}

// CleanWithMin is Clean with a caller-chosen degeneracy threshold.
func CleanWithMin(raw string, minChars int) (string, bool) {
	text := raw
	for {
		next := applySanitizeRules(text)
		if next == text {
			break
		}
		text = next
	}
	if utf8.RuneCountInString(text) <= minChars {
		return "", false
	}
	return text, true
}

func applySanitizeRules(text string) string {
	for _, rule := range sanitizeRules {
		text = rule.pattern.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}
