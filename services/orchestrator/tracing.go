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
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// StdoutTraceEndpoint selects the console span exporter.
const StdoutTraceEndpoint = "stdout"

// InitTracer installs a global tracer provider that exports spans over OTLP
// gRPC to endpoint.
//
// # Description
//
// An empty endpoint leaves the no-op global provider in place and returns a
// no-op cleanup, so tracing costs nothing unless a collector is configured.
// The endpoint "stdout" pretty-prints spans to standard output instead of
// exporting them, which is handy when running without a collector.
//
// # Outputs
//
//   - func(context.Context): Flushes and shuts down the exporter.
//   - error: Non-nil if the exporter could not be created.
//
// # Limitations
//
//   - Uses an insecure gRPC connection (appropriate for internal networks)
func InitTracer(ctx context.Context, endpoint, serviceName string) (func(context.Context), error) {
	if endpoint == "" {
		return func(context.Context) {}, nil
	}
	if serviceName == "" {
		serviceName = "farminai"
	}

	if endpoint == StdoutTraceEndpoint {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		return installProvider(ctx, exporter, serviceName, nil)
	}

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	cleanup, err := installProvider(ctx, traceExporter, serviceName, func() { _ = conn.Close() })
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	slog.Info("OpenTelemetry tracing enabled", "endpoint", endpoint, "service", serviceName)
	return cleanup, nil
}

// installProvider sets a batching tracer provider around exporter as the
// global provider. onShutdown runs after the provider has flushed.
func installProvider(ctx context.Context, exporter sdktrace.SpanExporter, serviceName string, onShutdown func()) (func(context.Context), error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter))

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown tracer provider", "error", err)
		}
		if onShutdown != nil {
			onShutdown()
		}
	}
	return cleanup, nil
}
