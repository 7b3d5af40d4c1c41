// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/AleutianAI/FarminAI/pkg/config"
	"github.com/AleutianAI/FarminAI/services/orchestrator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// runServe builds the full stack and serves the API until SIGINT or SIGTERM.
func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	shutdownTracer, err := orchestrator.InitTracer(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		// Tracing is optional; the API still works without a collector.
		slog.Warn("Tracing disabled", "endpoint", cfg.Telemetry.OTLPEndpoint, "error", err)
		shutdownTracer = func(context.Context) {}
	}
	defer shutdownTracer(context.Background())

	stack, err := orchestrator.BuildStack(ctx, cfg, prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("build stack: %w", err)
	}
	defer func() {
		if err := stack.Close(); err != nil {
			slog.Error("Failed to close storage", "error", err)
		}
	}()

	svc, err := orchestrator.New(serviceConfig(cfg), stack.Dependencies(), stack.Metrics)
	if err != nil {
		return err
	}
	slog.Info("FarminAI ready",
		"port", cfg.Server.Port,
		"llm_backend", cfg.LLM.Backend,
		"model", cfg.LLM.Model,
		"sessions", cfg.Sessions.Store,
		"detection", stack.Classifier != nil,
		"speech", stack.Transcriber != nil)
	return svc.Run(ctx)
}

// serviceConfig maps the server section onto the HTTP service settings.
func serviceConfig(c config.FarminConfig) orchestrator.Config {
	return orchestrator.Config{
		Port:             c.Server.Port,
		GinMode:          c.Server.GinMode,
		ServiceName:      c.Telemetry.ServiceName,
		ShutdownTimeout:  c.Server.ShutdownTimeout,
		RateLimit:        c.Server.RateLimit,
		DisableRateLimit: serveNoLimit,
	}
}
