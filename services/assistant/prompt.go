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
	"strings"
)

// DefinitionInstruction is appended to the system instruction for
// definition-style questions.
const DefinitionInstruction = "Format the answer as:\n" +
	"Definition: <one or two sentences>\n" +
	"Key points:\n" +
	"- <point>\n" +
	"- <point>"

// DefaultHistoryTurns is the prompt history cap used when a request leaves
// HistoryTurns unset.
const DefaultHistoryTurns = 8

// PromptRequest is everything needed to render one prompt.
type PromptRequest struct {
	SystemInstruction string
	History           []Turn
	LatestQuestion    string
	Language          string

	// HistoryTurns caps History; zero means DefaultHistoryTurns.
	HistoryTurns int
}

// BuildPrompt renders a conversational prompt.
//
// # Description
//
// The prompt opens with the system instruction verbatim, echoes at most the
// last HistoryTurns turns labelled by role, and closes with the latest
// question in double quotes and an order to answer only that question.
// Without the closing quote the model tends to answer an earlier question
// from the history.
//
// # Inputs
//
//   - req: The prompt parts. History must not contain LatestQuestion.
//
// # Outputs
//
//   - string: The rendered prompt.
//   - error: ErrInvalidInput when LatestQuestion is blank.
//
// # Examples
//
//	prompt, err := BuildPrompt(PromptRequest{
//	    SystemInstruction: DefaultSystemInstruction,
//	    LatestQuestion:    "When should I sow wheat?",
//	})
func BuildPrompt(req PromptRequest) (string, error) {
	question := strings.TrimSpace(req.LatestQuestion)
	if question == "" {
		return "", ErrInvalidInput
	}

	limit := req.HistoryTurns
	if limit <= 0 {
		limit = DefaultHistoryTurns
	}
	history := req.History
	if len(history) > limit {
		history = history[len(history)-limit:]
	}

	var sb strings.Builder
	sb.WriteString(req.SystemInstruction)
	sb.WriteString("\n\n")

	if len(history) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, turn := range history {
			sb.WriteString(turn.Role.Label())
			sb.WriteString(": ")
			sb.WriteString(strings.TrimSpace(turn.Content))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Latest question: \"")
	sb.WriteString(question)
	sb.WriteString("\"\n")
	sb.WriteString("Answer ONLY the quoted latest question, concisely and directly.")
	return sb.String(), nil
}

// BuildCorrectivePrompt renders the single re-prompt issued when a draft
// misses every keyword of the question. History is deliberately left out.
func BuildCorrectivePrompt(systemInstruction, question string, keywords KeywordSet) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrInvalidInput
	}

	var sb strings.Builder
	sb.WriteString(systemInstruction)
	sb.WriteString("\n\n")
	sb.WriteString("Your previous answer did not address the question.")
	if len(keywords) > 0 {
		sb.WriteString(" It must mention: ")
		sb.WriteString(strings.Join(keywords, ", "))
		sb.WriteString(".")
	}
	sb.WriteString("\n\nQuestion: \"")
	sb.WriteString(question)
	sb.WriteString("\"\n")
	sb.WriteString("Answer ONLY this quoted question, concisely and directly.")
	return sb.String(), nil
}

// systemInstructionFor extends base with the definition block when the
// question asks for a definition.
func systemInstructionFor(base, question string) string {
	if IsDefinitionQuery(question) {
		return base + "\n\n" + DefinitionInstruction
	}
	return base
}
