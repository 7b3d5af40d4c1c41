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
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AleutianAI/FarminAI/pkg/config"
	bstore "github.com/AleutianAI/FarminAI/pkg/storage/badger"
	"github.com/AleutianAI/FarminAI/services/assistant"
	"github.com/AleutianAI/FarminAI/services/assistant/history"
	"github.com/AleutianAI/FarminAI/services/detection"
	"github.com/AleutianAI/FarminAI/services/llm"
	"github.com/AleutianAI/FarminAI/services/orchestrator/observability"
	"github.com/AleutianAI/FarminAI/services/orchestrator/routes"
	"github.com/AleutianAI/FarminAI/services/planner"
	"github.com/AleutianAI/FarminAI/services/records"
	"github.com/AleutianAI/FarminAI/services/speech"
	"github.com/AleutianAI/FarminAI/services/translate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// ErrUnknownBackend is returned for an llm.backend other than ollama or openai.
var ErrUnknownBackend = errors.New("unknown LLM backend")

// redisPingTimeout bounds the startup reachability check.
const redisPingTimeout = 3 * time.Second

// Stack is every collaborator of the assistant, built from one config.
//
// # Description
//
// The HTTP service and the CLI share the same Stack so a question asked
// through either path runs the same pipeline. Optional collaborators are
// nil when their endpoint is not configured.
type Stack struct {
	Config      config.FarminConfig
	Metrics     *observability.Metrics
	Assistant   *assistant.Orchestrator
	Sessions    *assistant.SessionRegistry
	Translator  translate.Translator
	Records     *records.RecordStore
	Images      *records.ImageStore
	Classifier  detection.Classifier
	Transcriber speech.Transcriber
	Crops       *planner.CropCatalogue
	Forecasts   *planner.ForecastBook

	closers []func() error
}

// BuildStack wires the stack described by cfg.
//
// # Description
//
// Builds, in order: metrics (when reg is non-nil), the LLM backend, the
// history store, the assistant, storage and the optional HTTP collaborators.
// A Redis history store that cannot be reached degrades to memory with a
// warning rather than failing startup.
//
// # Inputs
//
//   - ctx: Bounds the startup checks.
//   - cfg: Loaded configuration.
//   - reg: Prometheus registerer for metrics. Nil disables metrics.
//
// # Outputs
//
//   - *Stack: Ready stack. Call Close when done.
//   - error: Backend or storage construction failure.
func BuildStack(ctx context.Context, cfg config.FarminConfig, reg prometheus.Registerer) (*Stack, error) {
	s := &Stack{Config: cfg}

	var opts []assistant.Option
	if reg != nil {
		s.Metrics = observability.NewMetrics(reg)
		opts = append(opts, assistant.WithObserver(s.Metrics))
	}

	backend, err := NewBackend(cfg.LLM)
	if err != nil {
		return nil, err
	}
	inference := llm.NewInference(backend, llm.InferenceConfig{MaxTokens: cfg.LLM.MaxTokens})

	s.Translator = translate.New(cfg.Translation)
	opts = append(opts, assistant.WithTranslator(s.Translator))

	if cfg.Data.FallbackTable != "" {
		table, err := assistant.LoadFallbackTable(cfg.Data.FallbackTable)
		if err != nil {
			return nil, err
		}
		opts = append(opts, assistant.WithFallbackTable(table))
	}
	s.Assistant = assistant.NewOrchestrator(inference, cfg.Assistant, opts...)

	store := s.historyStore(ctx, cfg.Sessions)
	s.closers = append(s.closers, store.Close)
	s.Sessions = assistant.NewSessionRegistry(store)

	if err := s.openStorage(cfg.Storage); err != nil {
		s.Close()
		return nil, err
	}

	if strings.TrimSpace(cfg.Detection.BaseURL) != "" {
		s.Classifier = detection.NewClient(cfg.Detection)
	}
	if strings.TrimSpace(cfg.Speech.BaseURL) != "" {
		s.Transcriber = speech.NewClient(cfg.Speech)
	}

	if err := s.loadPlannerData(cfg.Data); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// NewBackend creates the LLM client named by cfg.Backend.
func NewBackend(cfg config.LLMConfig) (llm.LLMClient, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "ollama":
		slog.Info("Using Ollama LLM backend")
		return llm.NewOllamaClient(llm.OllamaConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	case "openai":
		slog.Info("Using OpenAI-compatible LLM backend")
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

func (s *Stack) historyStore(ctx context.Context, cfg config.SessionsConfig) history.Store {
	kind := history.Kind(strings.ToLower(strings.TrimSpace(cfg.Store)))
	if kind != history.KindRedis {
		store, err := history.NewStore(kind)
		if err != nil {
			slog.Warn("Unknown session store, keeping history in memory", "store", cfg.Store, "error", err)
			return history.NewMemoryStore()
		}
		return store
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("Redis unreachable, keeping history in memory",
			"addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return history.NewMemoryStore()
	}

	store, err := history.NewStore(history.KindRedis,
		history.WithRedisClient(client),
		history.WithTTL(cfg.TTL),
		history.WithKeyPrefix(cfg.KeyPrefix))
	if err != nil {
		_ = client.Close()
		slog.Warn("Redis history store unavailable, keeping history in memory", "error", err)
		return history.NewMemoryStore()
	}
	slog.Info("Session history stored in Redis", "addr", cfg.RedisAddr, "ttl", cfg.TTL.String())
	return store
}

func (s *Stack) openStorage(cfg config.StorageConfig) error {
	if err := cfg.EnsureDir(); err != nil {
		return err
	}
	recs, err := records.OpenRecordStore(records.RecordConfig{Path: cfg.RecordsPath()})
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	s.Records = recs
	s.closers = append(s.closers, recs.Close)

	bcfg := bstore.InMemoryConfig()
	if path := cfg.ImagesPath(); path != "" {
		bcfg = bstore.DefaultConfig(path)
	}
	db, err := bstore.Open(bcfg)
	if err != nil {
		return fmt.Errorf("failed to open image store: %w", err)
	}
	s.Images = records.NewImageStore(db)
	s.closers = append(s.closers, db.Close)
	return nil
}

func (s *Stack) loadPlannerData(cfg config.DataConfig) error {
	s.Crops = planner.DefaultCropCatalogue()
	if cfg.CropCatalogue != "" {
		crops, err := planner.LoadCropCatalogue(cfg.CropCatalogue)
		if err != nil {
			return err
		}
		s.Crops = crops
	}
	s.Forecasts = planner.DefaultForecastBook()
	if cfg.Forecasts != "" {
		book, err := planner.LoadForecastBook(cfg.Forecasts)
		if err != nil {
			return err
		}
		s.Forecasts = book
	}
	return nil
}

// Dependencies returns the route collaborators backed by this stack.
func (s *Stack) Dependencies() routes.Dependencies {
	deps := routes.Dependencies{
		Assistant:  s.Assistant,
		Sessions:   s.Sessions,
		Translator: s.Translator,
		Crops:      s.Crops,
		Forecasts:  s.Forecasts,
		AdminToken: s.Config.Server.AdminToken,
	}
	// Typed nils must not leak into the interface fields.
	if s.Records != nil {
		deps.Records = s.Records
	}
	if s.Images != nil {
		deps.Images = s.Images
	}
	if s.Classifier != nil {
		deps.Classifier = s.Classifier
	}
	if s.Transcriber != nil {
		deps.Transcriber = s.Transcriber
	}
	return deps
}

// Close releases storage and history connections in reverse order of
// opening. It returns the first error.
func (s *Stack) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}
