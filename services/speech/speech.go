// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package speech turns recorded questions into text using a local
// whisper.cpp server.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("farminai.speech")

const (
	// ApologyUnclear is returned when the audio held no recognizable speech.
	ApologyUnclear = "Sorry, I couldn't understand you."

	// ApologyFailed is returned when the recognizer could not be reached.
	ApologyFailed = "Speech recognition failed."
)

// DefaultTimeout bounds one transcription.
const DefaultTimeout = 60 * time.Second

var (
	// ErrNoSpeech marks audio that produced a blank transcript.
	ErrNoSpeech = errors.New("no speech recognized")

	// ErrEmptyAudio is returned when no audio bytes were supplied.
	ErrEmptyAudio = errors.New("audio is empty")
)

// IsApology reports whether text is one of the fixed failure replies.
func IsApology(text string) bool {
	return text == ApologyUnclear || text == ApologyFailed
}

// Transcriber converts audio to text. Transcribe never fails; failures
// yield an apology string.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) string
}

// Config configures a Client.
type Config struct {
	BaseURL  string        `yaml:"base_url"`
	Language string        `yaml:"language"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Client posts audio to a whisper.cpp /inference endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	language   string
}

// NewClient creates a Client. Language defaults to "auto".
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	lang := cfg.Language
	if lang == "" {
		lang = "auto"
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		language:   lang,
	}
}

// Transcribe implements Transcriber.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) string {
	text, err := c.TryTranscribe(ctx, audio, filename)
	switch {
	case err == nil:
		return text
	case errors.Is(err, ErrNoSpeech), errors.Is(err, ErrEmptyAudio):
		return ApologyUnclear
	default:
		slog.Warn("Speech recognition failed", "error", err)
		return ApologyFailed
	}
}

// TryTranscribe returns the transcript or the failure.
func (c *Client) TryTranscribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}
	if filename == "" {
		filename = "question.wav"
	}

	ctx, span := tracer.Start(ctx, "Client.Transcribe")
	defer span.End()
	span.SetAttributes(attribute.Int("speech.bytes", len(audio)))

	text, err := c.do(ctx, audio, filename)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transcription failed")
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

func (c *Client) do(ctx context.Context, audio []byte, filename string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	fields := map[string]string{
		"response_format": "json",
		"temperature":     "0.0",
		"language":        c.language,
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/inference", &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("recognizer request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("recognizer returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed struct {
		Text  string `json:"text"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("recognizer error: %s", parsed.Error)
	}
	return parsed.Text, nil
}
