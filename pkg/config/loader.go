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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultPath is ~/.farminai/farminai.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".farminai", "farminai.yaml"), nil
}

// Load reads the config at path, creating it with defaults on first run, and
// applies environment overrides. An empty path uses DefaultPath.
//
// # Description
//
// Fields missing from the file keep their default values because the file
// is decoded over DefaultConfig(). Environment variables win over the file:
//
//	OLLAMA_BASE_URL, OLLAMA_MODEL, FARMINAI_PORT, REDIS_ADDR,
//	OTEL_EXPORTER_OTLP_ENDPOINT, TRANSLATE_BASE_URL, FARMINAI_ADMIN_TOKEN
func Load(path string) (FarminConfig, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return FarminConfig{}, err
		}
		path = p
	}
	// create it if it doesn't exist
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Info("First run detected, creating the config", "path", path)
		if err := createDefault(path); err != nil {
			return FarminConfig{}, err
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return FarminConfig{}, fmt.Errorf("failed to read the config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return FarminConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return ApplyEnv(cfg, os.LookupEnv), nil
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (FarminConfig, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return FarminConfig{}, fmt.Errorf("failed to parse the config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays environment overrides using lookup, which is
// os.LookupEnv outside tests.
func ApplyEnv(cfg FarminConfig, lookup func(string) (string, bool)) FarminConfig {
	if v, ok := lookup("OLLAMA_BASE_URL"); ok && v != "" {
		cfg.LLM.BaseURL = v
	}
	if v, ok := lookup("OLLAMA_MODEL"); ok && v != "" {
		cfg.LLM.Model = v
	}
	if v, ok := lookup("FARMINAI_PORT"); ok && v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Server.Port = port
		} else {
			slog.Warn("Ignoring invalid FARMINAI_PORT", "value", v)
		}
	}
	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		cfg.Sessions.RedisAddr = v
		cfg.Sessions.Store = "redis"
	}
	if v, ok := lookup("OTEL_EXPORTER_OTLP_ENDPOINT"); ok && v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	if v, ok := lookup("TRANSLATE_BASE_URL"); ok && v != "" {
		cfg.Translation.BaseURL = v
	}
	if v, ok := lookup("FARMINAI_ADMIN_TOKEN"); ok && v != "" {
		cfg.Server.AdminToken = v
	}
	return cfg
}

func createDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
