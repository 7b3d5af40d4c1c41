// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestNew_TextConsoleFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: slog.LevelWarn, Console: &buf, Service: "cli"})
	require.NoError(t, err)

	l.Slog().Info("hidden")
	l.Slog().Warn("shown", "session_id", "abc")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "service=cli")
	assert.Contains(t, out, "session_id=abc")
	assert.NoError(t, l.Close())
}

func TestNew_JSONConsole(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{JSON: true, Console: &buf})
	require.NoError(t, err)

	l.Slog().Info("answered", "outcome", "success")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "answered", rec["msg"])
	assert.Equal(t, "success", rec["outcome"])
}

func TestNew_FileLogging(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var buf bytes.Buffer
	l, err := New(Config{Console: &buf, LogDir: dir, Service: "server"})
	require.NoError(t, err)

	l.Slog().Info("to both")
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "server_"))

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to both"`)
	assert.Contains(t, buf.String(), "to both")
}

func TestNew_BadLogDirStillLogsToConsole(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	var buf bytes.Buffer
	l, err := New(Config{Console: &buf, LogDir: filepath.Join(blocker, "logs")})
	assert.Error(t, err)
	require.NotNil(t, l)

	l.Slog().Info("still here")
	assert.Contains(t, buf.String(), "still here")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".farminai/logs"), expandPath("~/.farminai/logs"))
	assert.Equal(t, "/var/log", expandPath("/var/log"))
}
