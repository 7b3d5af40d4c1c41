// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package translate renders text in the user's language through a
// LibreTranslate-compatible HTTP service.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/FarminAI/services/llm"
)

var tracer = otel.Tracer("farminai.translate")

// DefaultTimeout bounds one translation request.
const DefaultTimeout = 10 * time.Second

// ErrTranslationFailed wraps every failure of TryTranslate.
var ErrTranslationFailed = errors.New("translation failed")

// Translator renders text in a target language. Translate never fails; on
// any error it returns the input unchanged.
type Translator interface {
	Translate(ctx context.Context, text, target string) string
}

// Noop returns its input. Used when no translation service is configured.
type Noop struct{}

// Translate implements Translator.
func (Noop) Translate(_ context.Context, text, _ string) string { return text }

// Config configures a Client.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Source  string        `yaml:"source"`
	Timeout time.Duration `yaml:"timeout"`
}

// Client talks to a LibreTranslate /translate endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	source     string
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error,omitempty"`
}

// New returns a Client, or Noop when cfg.BaseURL is empty.
func New(cfg Config) Translator {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return Noop{}
	}
	return NewClient(cfg)
}

// NewClient creates a Client. Source defaults to "auto".
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	source := cfg.Source
	if source == "" {
		source = "auto"
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		source:     source,
	}
}

// Translate implements Translator. Failures are logged and the input is
// returned.
func (c *Client) Translate(ctx context.Context, text, target string) string {
	out, err := c.TryTranslate(ctx, text, target)
	if err != nil {
		slog.Warn("Translation failed, using original text",
			"target", target, "error", err)
		return text
	}
	return out
}

// TryTranslate translates text and reports failures.
//
// # Description
//
// English targets and blank text are returned unchanged without a request.
// Any transport error, non-2xx status, undecodable body or blank
// translation is an error wrapping ErrTranslationFailed.
func (c *Client) TryTranslate(ctx context.Context, text, target string) (string, error) {
	target = llm.NormalizeLanguage(target)
	if target == llm.DefaultLanguage || strings.TrimSpace(text) == "" {
		return text, nil
	}

	ctx, span := tracer.Start(ctx, "Client.Translate")
	defer span.End()
	span.SetAttributes(attribute.String("translate.target", target), attribute.Int("translate.chars", len(text)))

	out, err := c.do(ctx, text, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "translation failed")
		return "", fmt.Errorf("%w: %v", ErrTranslationFailed, err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, text, target string) (string, error) {
	body, err := json.Marshal(translateRequest{
		Q:      text,
		Source: c.source,
		Target: target,
		Format: "text",
		APIKey: c.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed translateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != "" {
		return "", errors.New(parsed.Error)
	}
	if strings.TrimSpace(parsed.TranslatedText) == "" {
		return "", errors.New("empty translation")
	}
	return parsed.TranslatedText, nil
}
