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
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed fallback.yaml
var defaultFallbackData []byte

// FallbackEntry maps a trigger keyword to a canned answer.
type FallbackEntry struct {
	Keyword string `yaml:"keyword"`
	Answer  string `yaml:"answer"`
}

type fallbackFile struct {
	Entries []FallbackEntry `yaml:"entries"`
}

// FallbackTable is the ordered, read-only keyword table consulted when no
// model attempt produced usable text.
type FallbackTable struct {
	entries []FallbackEntry
}

var (
	defaultFallbackOnce  sync.Once
	defaultFallbackTable *FallbackTable
)

// DefaultFallbackTable returns the embedded table, parsed once per process.
func DefaultFallbackTable() *FallbackTable {
	defaultFallbackOnce.Do(func() {
		table, err := ParseFallbackTable(defaultFallbackData)
		if err != nil {
			panic(fmt.Sprintf("embedded fallback table is invalid: %v", err))
		}
		defaultFallbackTable = table
	})
	return defaultFallbackTable
}

// LoadFallbackTable reads a table from a YAML file with the same layout as
// the embedded default.
func LoadFallbackTable(path string) (*FallbackTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fallback table %s: %w", path, err)
	}
	return ParseFallbackTable(data)
}

// ParseFallbackTable decodes a YAML table. Keywords are lower-cased; entries
// with a blank keyword or answer are rejected.
func ParseFallbackTable(data []byte) (*FallbackTable, error) {
	var file fallbackFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse fallback table: %w", err)
	}
	entries := make([]FallbackEntry, 0, len(file.Entries))
	for i, e := range file.Entries {
		keyword := strings.ToLower(strings.TrimSpace(e.Keyword))
		answer := strings.TrimSpace(e.Answer)
		if keyword == "" || answer == "" {
			return nil, fmt.Errorf("fallback entry %d: keyword and answer are required", i)
		}
		entries = append(entries, FallbackEntry{Keyword: keyword, Answer: answer})
	}
	return &FallbackTable{entries: entries}, nil
}

// Lookup returns the first entry whose keyword occurs in question,
// case-insensitively.
func (t *FallbackTable) Lookup(question string) (FallbackEntry, bool) {
	if t == nil {
		return FallbackEntry{}, false
	}
	lower := strings.ToLower(question)
	for _, e := range t.entries {
		if strings.Contains(lower, e.Keyword) {
			return e, true
		}
	}
	return FallbackEntry{}, false
}

// Entries returns a copy of the table in match order.
func (t *FallbackTable) Entries() []FallbackEntry {
	if t == nil {
		return nil
	}
	out := make([]FallbackEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *FallbackTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}
