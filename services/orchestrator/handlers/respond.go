// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the gin handlers of the FarminAI HTTP API.
//
// Every handler is built by a constructor that closes over its
// collaborators, so routes can be wired with fakes in tests.
package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/AleutianAI/FarminAI/services/orchestrator/datatypes"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var handlerTracer = otel.Tracer("farminai.orchestrator.handlers")

// MaxUploadBytes caps multipart image and audio uploads.
const MaxUploadBytes = 10 << 20

// fail records err on the span, logs it and writes {"error": msg}.
func fail(c *gin.Context, span trace.Span, status int, msg string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if status >= http.StatusInternalServerError {
			slog.Error(msg, "path", c.FullPath(), "error", err)
		} else {
			slog.Warn(msg, "path", c.FullPath(), "error", err)
		}
	}
	c.JSON(status, gin.H{"error": msg})
}

// bind decodes the JSON body into req and runs its validate tags. It writes
// the 400 response itself and reports whether the handler may continue.
func bind(c *gin.Context, span trace.Span, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, span, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	if err := datatypes.Validate(req); err != nil {
		fail(c, span, http.StatusBadRequest, datatypes.ValidationMessage(err), err)
		return false
	}
	return true
}

// readUpload reads a multipart file field, bounded by MaxUploadBytes.
func readUpload(c *gin.Context, field string) ([]byte, *multipart.FileHeader, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, nil, fmt.Errorf("missing %s file: %w", field, err)
	}
	if header.Size > MaxUploadBytes {
		return nil, nil, fmt.Errorf("%s exceeds %d bytes", field, MaxUploadBytes)
	}
	f, err := header.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes+1))
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", field, err)
	}
	if len(data) > MaxUploadBytes {
		return nil, nil, fmt.Errorf("%s exceeds %d bytes", field, MaxUploadBytes)
	}
	return data, header, nil
}

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
