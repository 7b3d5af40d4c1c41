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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFallbackTable(t *testing.T) {
	table := DefaultFallbackTable()
	require.NotNil(t, table)
	assert.Same(t, table, DefaultFallbackTable())
	assert.Greater(t, table.Len(), 5)

	entries := table.Entries()
	assert.Equal(t, "irrigation", entries[0].Keyword)
	assert.Equal(t, "crop", entries[len(entries)-1].Keyword)
	for _, e := range entries {
		assert.NotEmpty(t, e.Answer, "keyword=%s", e.Keyword)
	}
}

func TestFallbackTable_Lookup(t *testing.T) {
	table := DefaultFallbackTable()

	entry, ok := table.Lookup("Tell me about IRRIGATION")
	require.True(t, ok)
	assert.Equal(t, "irrigation", entry.Keyword)

	// Earlier entries win.
	entry, ok = table.Lookup("soil or irrigation for my crop?")
	require.True(t, ok)
	assert.Equal(t, "irrigation", entry.Keyword)

	// Substring matching.
	entry, ok = table.Lookup("pesticides for brinjal")
	require.True(t, ok)
	assert.Equal(t, "pest", entry.Keyword)

	_, ok = table.Lookup("what about the stock market")
	assert.False(t, ok)

	var nilTable *FallbackTable
	_, ok = nilTable.Lookup("irrigation")
	assert.False(t, ok)
}

func TestParseFallbackTable(t *testing.T) {
	table, err := ParseFallbackTable([]byte(`
entries:
  - keyword: "  Mango "
    answer: Prune after harvest.
`))
	require.NoError(t, err)
	entry, ok := table.Lookup("my mango tree")
	require.True(t, ok)
	assert.Equal(t, "mango", entry.Keyword)
	assert.Equal(t, "Prune after harvest.", entry.Answer)

	_, err = ParseFallbackTable([]byte("entries:\n  - keyword: mango\n"))
	assert.Error(t, err)

	_, err = ParseFallbackTable([]byte("entries: [unterminated"))
	assert.Error(t, err)
}

func TestLoadFallbackTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entries:\n  - keyword: goat\n    answer: Deworm goats every quarter.\n"), 0o644))

	table, err := LoadFallbackTable(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	_, err = LoadFallbackTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
