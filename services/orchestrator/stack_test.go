// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AleutianAI/FarminAI/pkg/config"
	"github.com/AleutianAI/FarminAI/services/assistant"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOllama answers /api/generate with a fixed completion.
func fakeOllama(t *testing.T, completion string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"response": completion, "done": true})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func stackConfig(baseURL string) config.FarminConfig {
	cfg := config.DefaultConfig()
	cfg.LLM.BaseURL = baseURL
	cfg.LLM.Timeout = 5 * time.Second
	cfg.Assistant.Backoff = time.Millisecond
	cfg.Storage.Dir = ""
	return cfg
}

func TestBuildStack_InMemory(t *testing.T) {
	srv, calls := fakeOllama(t,
		"Drip irrigation saves water by delivering it slowly to the roots of each plant.")
	reg := prometheus.NewRegistry()

	stack, err := BuildStack(context.Background(), stackConfig(srv.URL), reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stack.Close() })

	require.NotNil(t, stack.Metrics)
	require.NotNil(t, stack.Records)
	require.NotNil(t, stack.Images)
	assert.Nil(t, stack.Classifier, "no detection endpoint configured")
	assert.Nil(t, stack.Transcriber, "no speech endpoint configured")
	assert.NotEmpty(t, stack.Crops.Seasons())
	assert.NotEmpty(t, stack.Forecasts.Districts())

	ctx := context.Background()
	sess := stack.Sessions.Get(ctx, "farmer-1")
	reply := stack.Assistant.Respond(ctx, sess, "What is drip irrigation?", "en")
	assert.NotEmpty(t, reply.Text)
	assert.Positive(t, calls.Load())

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["farminai_assistant_answers_total"])
	assert.True(t, names["farminai_assistant_inference_requests_total"])
}

func TestBuildStack_NilRegistererSkipsMetrics(t *testing.T) {
	srv, _ := fakeOllama(t, "unused")

	stack, err := BuildStack(context.Background(), stackConfig(srv.URL), nil)
	require.NoError(t, err)
	defer stack.Close()

	assert.Nil(t, stack.Metrics)
}

func TestBuildStack_FileBackedStorage(t *testing.T) {
	srv, _ := fakeOllama(t, "unused")
	cfg := stackConfig(srv.URL)
	cfg.Storage.Dir = t.TempDir()

	stack, err := BuildStack(context.Background(), cfg, nil)
	require.NoError(t, err)

	_, err = stack.Records.AddRecord(context.Background(), "crop", "Sowed chickpea", "2025-11-02")
	require.NoError(t, err)
	require.NoError(t, stack.Close())

	_, err = os.Stat(filepath.Join(cfg.Storage.Dir, "images"))
	assert.NoError(t, err)
}

func TestBuildStack_OptionalCollaborators(t *testing.T) {
	srv, _ := fakeOllama(t, "unused")
	cfg := stackConfig(srv.URL)
	cfg.Detection.BaseURL = "http://tf-serving:8501"
	cfg.Speech.BaseURL = "http://whisper:9000"

	stack, err := BuildStack(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer stack.Close()

	deps := stack.Dependencies()
	assert.NotNil(t, deps.Classifier)
	assert.NotNil(t, deps.Transcriber)
	assert.NotNil(t, deps.Records)
	assert.NotNil(t, deps.Images)
}

func TestBuildStack_RedisUnreachableFallsBackToMemory(t *testing.T) {
	srv, _ := fakeOllama(t, "unused")
	cfg := stackConfig(srv.URL)
	cfg.Sessions.Store = "redis"
	cfg.Sessions.RedisAddr = "127.0.0.1:1"

	stack, err := BuildStack(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer stack.Close()

	ctx := context.Background()
	stack.Sessions.Get(ctx, "s").Append(ctx, assistant.Turn{Role: assistant.RoleUser, Content: "hello"})
	assert.Len(t, stack.Sessions.Get(ctx, "s").Turns(), 1)
}

func TestBuildStack_BadDataFile(t *testing.T) {
	srv, _ := fakeOllama(t, "unused")
	cfg := stackConfig(srv.URL)
	cfg.Data.CropCatalogue = filepath.Join(t.TempDir(), "missing.json")

	_, err := BuildStack(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestNewBackend(t *testing.T) {
	for _, backend := range []string{"", "ollama", "OLLAMA"} {
		client, err := NewBackend(config.LLMConfig{Backend: backend})
		require.NoError(t, err, backend)
		assert.NotNil(t, client)
	}

	client, err := NewBackend(config.LLMConfig{Backend: "openai", BaseURL: "http://localhost:8000/v1", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.NotNil(t, client)

	_, err = NewBackend(config.LLMConfig{Backend: "anthropic"})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestStackClose_ReverseOrderFirstError(t *testing.T) {
	var order []int
	s := &Stack{closers: []func() error{
		func() error { order = append(order, 1); return assert.AnError },
		func() error { order = append(order, 2); return nil },
		func() error { order = append(order, 3); return context.Canceled },
	}}

	err := s.Close()
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{3, 2, 1}, order)
	assert.NoError(t, s.Close(), "closers run once")
}
