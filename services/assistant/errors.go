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

import "errors"

// Failure taxonomy of the answer pipeline. Only ErrInvalidInput is ever
// returned to a caller; the rest label logs, metrics and span events and are
// recovered inside the Orchestrator.
var (
	// ErrInvalidInput is returned by the prompt builder for a blank question.
	ErrInvalidInput = errors.New("question must not be empty")

	// ErrNetworkFailure marks an unreachable, timed out or non-2xx endpoint.
	ErrNetworkFailure = errors.New("inference endpoint unavailable")

	// ErrEmptyCompletion marks a completion with nothing usable after cleaning.
	ErrEmptyCompletion = errors.New("completion empty after sanitization")

	// ErrOffTopicCompletion marks a cleaned completion that misses every
	// question keyword.
	ErrOffTopicCompletion = errors.New("completion does not cover the question")

	// ErrTranslationFailure is swallowed; the untranslated text is used.
	ErrTranslationFailure = errors.New("translation failed")

	// ErrPersistenceFailure marks a history write that did not reach the store.
	ErrPersistenceFailure = errors.New("conversation history not persisted")
)
