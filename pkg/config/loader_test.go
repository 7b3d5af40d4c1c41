// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AleutianAI/FarminAI/services/detection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad_CreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "farminai.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, "ollama", cfg.LLM.Backend)
	assert.Equal(t, 2, cfg.Assistant.Retries)

	// A second load reads the file it just wrote.
	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Server.Port, again.Server.Port)
	assert.Equal(t, cfg.Assistant.Backoff, again.Assistant.Backoff)
}

func TestParse_OverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
server:
  port: 9000
llm:
  backend: openai
  timeout: 20s
assistant:
  retries: 3
  temperatures: [0.9, 0.1]
detection:
  base_url: http://tfserving:8501
`))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, "openai", cfg.LLM.Backend)
	assert.Equal(t, 20*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 3, cfg.Assistant.Retries)
	assert.Equal(t, []float32{0.9, 0.1}, cfg.Assistant.Temperatures)
	assert.Equal(t, 8, cfg.Assistant.HistoryTurns)
	assert.Equal(t, "http://tfserving:8501", cfg.Detection.BaseURL)
	assert.Equal(t, "crop_disease", cfg.Detection.Models[detection.KindCrop])
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("server: [not a map"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := ApplyEnv(DefaultConfig(), envMap(map[string]string{
		"OLLAMA_BASE_URL":             "http://gpu-box:11434",
		"OLLAMA_MODEL":                "llama3.2:3b",
		"FARMINAI_PORT":               "8088",
		"REDIS_ADDR":                  "redis:6379",
		"OTEL_EXPORTER_OTLP_ENDPOINT": "otel:4317",
		"TRANSLATE_BASE_URL":          "http://libretranslate:5000",
		"FARMINAI_ADMIN_TOKEN":        "barn-key",
	}))

	assert.Equal(t, "http://gpu-box:11434", cfg.LLM.BaseURL)
	assert.Equal(t, "llama3.2:3b", cfg.LLM.Model)
	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Sessions.Store)
	assert.Equal(t, "redis:6379", cfg.Sessions.RedisAddr)
	assert.Equal(t, "otel:4317", cfg.Telemetry.OTLPEndpoint)
	assert.Equal(t, "http://libretranslate:5000", cfg.Translation.BaseURL)
	assert.Equal(t, "barn-key", cfg.Server.AdminToken)
}

func TestApplyEnv_InvalidPortIgnored(t *testing.T) {
	cfg := ApplyEnv(DefaultConfig(), envMap(map[string]string{"FARMINAI_PORT": "eighty"}))
	assert.Equal(t, DefaultConfig().Server.Port, cfg.Server.Port)
}

func TestStorageConfig_Paths(t *testing.T) {
	assert.Empty(t, StorageConfig{}.RecordsPath())
	assert.Empty(t, StorageConfig{}.ImagesPath())

	s := StorageConfig{Dir: "/var/lib/farminai"}
	assert.Equal(t, filepath.Join("/var/lib/farminai", "records.db"), s.RecordsPath())
	assert.Equal(t, filepath.Join("/var/lib/farminai", "images"), s.ImagesPath())
}

func TestStorageConfig_EnsureDir(t *testing.T) {
	assert.NoError(t, StorageConfig{}.EnsureDir())

	dir := filepath.Join(t.TempDir(), "nested", "data")
	require.NoError(t, StorageConfig{Dir: dir}.EnsureDir())
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoad_UnreadableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "farminai.yaml")
	require.NoError(t, os.Mkdir(path, 0o755))

	_, err := Load(path)
	assert.Error(t, err)
}
