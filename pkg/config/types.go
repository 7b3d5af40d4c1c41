// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the FarminAI YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AleutianAI/FarminAI/services/assistant"
	"github.com/AleutianAI/FarminAI/services/detection"
	"github.com/AleutianAI/FarminAI/services/llm"
	"github.com/AleutianAI/FarminAI/services/orchestrator/middleware"
	"github.com/AleutianAI/FarminAI/services/speech"
	"github.com/AleutianAI/FarminAI/services/translate"
)

type FarminConfig struct {
	// Server: the HTTP API
	Server ServerConfig `yaml:"server"`

	// LLM: which inference backend answers questions
	LLM LLMConfig `yaml:"llm"`

	// Assistant: retry, history and sampling policy
	Assistant assistant.Config `yaml:"assistant"`

	// Translation: LibreTranslate-compatible endpoint, empty disables it
	Translation translate.Config `yaml:"translation"`

	// Sessions: where conversation history lives
	Sessions SessionsConfig `yaml:"sessions"`

	// Storage: record table and image store paths
	Storage StorageConfig `yaml:"storage"`

	// Detection: TensorFlow-Serving endpoint, empty disables it
	Detection detection.Config `yaml:"detection"`

	// Speech: whisper.cpp server, empty disables it
	Speech speech.Config `yaml:"speech"`

	// Telemetry: OTLP tracing and logging
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Data: optional files replacing the built-in tables
	Data DataConfig `yaml:"data"`
}

type ServerConfig struct {
	Port            int                        `yaml:"port"`
	GinMode         string                     `yaml:"gin_mode"`
	ShutdownTimeout time.Duration              `yaml:"shutdown_timeout"`
	RateLimit       middleware.RateLimitConfig `yaml:"rate_limit"`
	// AdminToken guards record and image writes. Empty leaves them open.
	AdminToken string `yaml:"admin_token,omitempty"`
}

type LLMConfig struct {
	// Backend is "ollama" or "openai" (any OpenAI-compatible server).
	Backend   string        `yaml:"backend"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key,omitempty"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxTokens int           `yaml:"max_tokens"`
}

type SessionsConfig struct {
	// Store is "memory" or "redis".
	Store     string        `yaml:"store"`
	RedisAddr string        `yaml:"redis_addr"`
	RedisDB   int           `yaml:"redis_db"`
	TTL       time.Duration `yaml:"ttl"`
	KeyPrefix string        `yaml:"key_prefix"`
}

type StorageConfig struct {
	// Dir holds records.db and the images/ badger directory. Empty keeps
	// everything in memory.
	Dir string `yaml:"dir"`
}

type DataConfig struct {
	FallbackTable string `yaml:"fallback_table,omitempty"`
	CropCatalogue string `yaml:"crop_catalogue,omitempty"`
	Forecasts     string `yaml:"forecasts,omitempty"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
	LogLevel     string `yaml:"log_level"`
	LogDir       string `yaml:"log_dir,omitempty"`
}

// RecordsPath is the tinySQL file under Storage.Dir, or "" for memory.
func (s StorageConfig) RecordsPath() string {
	if s.Dir == "" {
		return ""
	}
	return filepath.Join(s.Dir, "records.db")
}

// ImagesPath is the badger directory under Storage.Dir, or "" for memory.
func (s StorageConfig) ImagesPath() string {
	if s.Dir == "" {
		return ""
	}
	return filepath.Join(s.Dir, "images")
}

// EnsureDir creates Storage.Dir when it is set.
func (s StorageConfig) EnsureDir() error {
	if s.Dir == "" {
		return nil
	}
	if err := os.MkdirAll(s.Dir, 0o750); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	return nil
}

func DefaultConfig() FarminConfig {
	storageDir := ""
	if home, err := os.UserHomeDir(); err == nil {
		storageDir = filepath.Join(home, ".farminai", "data")
	}
	return FarminConfig{
		Server: ServerConfig{
			Port:            12310,
			GinMode:         "release",
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       middleware.DefaultRateLimitConfig(),
		},
		LLM: LLMConfig{
			Backend:   "ollama",
			BaseURL:   llm.DefaultOllamaBaseURL,
			Model:     llm.DefaultOllamaModel,
			Timeout:   llm.DefaultRequestTimeout,
			MaxTokens: llm.DefaultInferenceConfig().MaxTokens,
		},
		Assistant: assistant.DefaultConfig(),
		Translation: translate.Config{
			Source:  "auto",
			Timeout: 10 * time.Second,
		},
		Sessions: SessionsConfig{
			Store:     "memory",
			TTL:       24 * time.Hour,
			KeyPrefix: "farminai:history:",
		},
		Storage: StorageConfig{Dir: storageDir},
		Detection: detection.Config{
			Models: map[detection.ModelKind]string{
				detection.KindPoultry: "poultry_disease",
				detection.KindCrop:    "crop_disease",
			},
			Timeout: detection.DefaultTimeout,
		},
		Speech: speech.Config{
			Language: "auto",
			Timeout:  speech.DefaultTimeout,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "farminai",
			LogLevel:    "info",
		},
	}
}
