// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrator provides the HTTP service of FarminAI.
//
// This package contains the Service type that puts the assistant and its
// collaborators (records, images, disease detection, speech, translation
// and the planners) behind a gin router with tracing and metrics.
//
// # Usage
//
//	stack, err := orchestrator.BuildStack(ctx, cfg, prometheus.DefaultRegisterer)
//	if err != nil {
//	    return err
//	}
//	defer stack.Close()
//
//	svc, err := orchestrator.New(orchestrator.Config{Port: 12310}, stack.Dependencies(), stack.Metrics)
//	if err != nil {
//	    return err
//	}
//	return svc.Run(ctx)
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/FarminAI/services/orchestrator/middleware"
	"github.com/AleutianAI/FarminAI/services/orchestrator/observability"
	"github.com/AleutianAI/FarminAI/services/orchestrator/routes"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the HTTP service.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and should
// only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until ctx is cancelled or the
	// server fails. Cancellation triggers a graceful shutdown bounded by
	// Config.ShutdownTimeout; a clean shutdown returns nil.
	Run(ctx context.Context) error

	// Router returns the underlying Gin engine for testing.
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds service configuration options. All fields are optional.
type Config struct {
	// Port is the HTTP server port. Default: 12310
	Port int

	// GinMode sets the Gin framework mode: "debug", "release" or "test".
	// Default: leaves the current mode alone
	GinMode string

	// ServiceName labels traces. Default: "farminai"
	ServiceName string

	// ShutdownTimeout bounds graceful shutdown. Default: 10s
	ShutdownTimeout time.Duration

	// ReadHeaderTimeout bounds slow clients. Default: 10s
	ReadHeaderTimeout time.Duration

	// RateLimit for the ask endpoint. Zero fields use the middleware
	// defaults.
	RateLimit middleware.RateLimitConfig

	// DisableRateLimit turns off the ask limiter.
	DisableRateLimit bool
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// # Thread Safety
//
// Thread-safe after construction. All fields are read-only after New() returns.
type service struct {
	config Config
	router *gin.Engine
}

// New creates a Service that serves deps.
//
// # Description
//
// New builds the gin engine with recovery, OpenTelemetry and request
// logging middleware, attaches the Prometheus request middleware when
// metrics are given and registers every route.
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults.
//   - deps: Route collaborators, usually Stack.Dependencies().
//   - metrics: Prometheus collectors. May be nil.
//
// # Outputs
//
//   - Service: Ready-to-run service
//   - error: Non-nil if deps lack the assistant or the session registry
func New(cfg Config, deps routes.Dependencies, metrics *observability.Metrics) (Service, error) {
	if deps.Assistant == nil || deps.Sessions == nil {
		return nil, errors.New("orchestrator requires an assistant and a session registry")
	}
	s := &service{config: applyConfigDefaults(cfg)}
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(otelgin.Middleware(s.config.ServiceName))
	s.router.Use(middleware.RequestLogger())
	if metrics != nil {
		s.router.Use(metrics.GinMiddleware())
	}

	if !s.config.DisableRateLimit && deps.AskLimiter == nil {
		deps.AskLimiter = middleware.NewSessionLimiter(s.config.RateLimit)
	}
	routes.SetupRoutes(s.router, deps)
	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

func (s *service) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Starting FarminAI server", "port", s.config.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		slog.Info("Shutting down FarminAI server", "timeout", s.config.ShutdownTimeout.String())
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (s *service) Router() *gin.Engine {
	return s.router
}

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12310
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "farminai"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}
	return cfg
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
