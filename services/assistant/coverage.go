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
	_ "embed"
	"regexp"
	"strings"
	"sync"
)

//go:embed stopwords.txt
var stopWordsData string

var (
	stopWordsOnce sync.Once
	stopWords     map[string]struct{}
)

// StopWords returns the set of words never treated as question keywords.
func StopWords() map[string]struct{} {
	stopWordsOnce.Do(func() {
		stopWords = make(map[string]struct{})
		for _, line := range strings.Split(stopWordsData, "\n") {
			word := strings.TrimSpace(strings.ToLower(line))
			if word != "" && !strings.HasPrefix(word, "#") {
				stopWords[word] = struct{}{}
			}
		}
	})
	return stopWords
}

// KeywordSet is the ordered, de-duplicated keywords of a question.
type KeywordSet []string

var (
	nonKeywordChars = regexp.MustCompile(`[^a-z0-9\-\s]+`)
	definitionQuery = regexp.MustCompile(`^(what is|what are|define|definition|meaning of)`)
)

// Keywords extracts the keywords of a question.
//
// The text is lower-cased, every character outside [a-z0-9-] and whitespace
// is dropped, and the rest is split on whitespace. Tokens are trimmed of
// hyphens; stop words and tokens of two characters or fewer are discarded.
func Keywords(question string) KeywordSet {
	normalized := nonKeywordChars.ReplaceAllString(strings.ToLower(question), "")
	stop := StopWords()

	seen := make(map[string]struct{})
	var out KeywordSet
	for _, token := range strings.Fields(normalized) {
		token = strings.Trim(token, "-")
		if len(token) <= 2 {
			continue
		}
		if _, ok := stop[token]; ok {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

// Covers reports whether answer mentions at least one keyword of question.
// A question without keywords is always covered. This is a coarse recall
// check; substring coincidences count as hits.
func Covers(question, answer string) bool {
	return Keywords(question).CoveredBy(answer)
}

// CoveredBy reports whether any keyword is a case-insensitive substring of
// text. An empty set is covered by anything.
func (k KeywordSet) CoveredBy(text string) bool {
	if len(k) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range k {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// IsDefinitionQuery reports whether text asks for a definition.
func IsDefinitionQuery(text string) bool {
	return definitionQuery.MatchString(strings.ToLower(strings.TrimSpace(text)))
}
