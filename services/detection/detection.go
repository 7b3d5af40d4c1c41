// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package detection classifies poultry and crop disease photos with models
// hosted behind a TensorFlow Serving REST endpoint.
package detection

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("farminai.detection")

// ModelKind selects the classifier.
type ModelKind string

const (
	KindPoultry ModelKind = "poultry"
	KindCrop    ModelKind = "crop"
)

// Labels is the fixed class vocabulary of each model, in output order.
var Labels = map[ModelKind][]string{
	KindPoultry: {"Healthy", "Avian Influenza", "Newcastle Disease", "Coccidiosis"},
	KindCrop:    {"Healthy", "Blight", "Rust", "Mildew"},
}

// DefaultTimeout bounds one prediction request.
const DefaultTimeout = 30 * time.Second

var (
	// ErrUnknownModelKind is returned for a kind other than poultry or crop.
	ErrUnknownModelKind = errors.New("unknown model kind")

	// ErrEmptyImage is returned when no image bytes were supplied.
	ErrEmptyImage = errors.New("image is empty")

	// ErrBadPrediction is returned when the model output does not match the
	// label vocabulary.
	ErrBadPrediction = errors.New("unexpected model output")
)

// ParseModelKind normalizes a model kind name.
func ParseModelKind(s string) (ModelKind, error) {
	kind := ModelKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := Labels[kind]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModelKind, s)
	}
	return kind, nil
}

// Prediction is the arg-max class of one image.
type Prediction struct {
	Kind       ModelKind `json:"model_kind"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Scores     []float64 `json:"scores"`
}

// String renders "<label> (<confidence>%)" with two decimals.
func (p Prediction) String() string {
	return fmt.Sprintf("%s (%.2f%%)", p.Label, p.Confidence)
}

// Classifier predicts a disease label for an image.
type Classifier interface {
	Predict(ctx context.Context, image []byte, kind ModelKind) (Prediction, error)
}

// Config configures a Client. Models maps each kind to its served model
// name; missing kinds use the kind name itself.
type Config struct {
	BaseURL string               `yaml:"base_url"`
	Models  map[ModelKind]string `yaml:"models"`
	Timeout time.Duration        `yaml:"timeout"`
}

// Client calls TensorFlow Serving's :predict API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	models     map[ModelKind]string
}

// NewClient creates a Client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	models := map[ModelKind]string{
		KindPoultry: "poultry_disease",
		KindCrop:    "crop_disease",
	}
	for k, v := range cfg.Models {
		if v != "" {
			models[k] = v
		}
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		models:     models,
	}
}

type predictRequest struct {
	Instances []predictInstance `json:"instances"`
}

type predictInstance struct {
	Image b64Value `json:"image"`
}

type b64Value struct {
	B64 string `json:"b64"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error,omitempty"`
}

// Predict classifies one image.
//
// # Description
//
// The raw image bytes are sent base64-encoded; decoding, resizing to the
// model's input and normalization happen in the serving signature. The
// reply's first prediction vector must have one score per label.
//
// # Outputs
//
//   - Prediction: Arg-max label and its score as a percentage.
//   - error: ErrEmptyImage, ErrUnknownModelKind, ErrBadPrediction or a
//     wrapped transport error.
func (c *Client) Predict(ctx context.Context, image []byte, kind ModelKind) (Prediction, error) {
	if len(image) == 0 {
		return Prediction{}, ErrEmptyImage
	}
	if _, ok := Labels[kind]; !ok {
		return Prediction{}, fmt.Errorf("%w: %q", ErrUnknownModelKind, kind)
	}

	ctx, span := tracer.Start(ctx, "Client.Predict")
	defer span.End()
	span.SetAttributes(attribute.String("detection.kind", string(kind)), attribute.Int("detection.bytes", len(image)))

	scores, err := c.predict(ctx, c.models[kind], image)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "prediction failed")
		return Prediction{}, err
	}
	pred, err := Decide(kind, scores)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad prediction")
		return Prediction{}, err
	}
	span.SetAttributes(attribute.String("detection.label", pred.Label))
	return pred, nil
}

// Decide turns a score vector into a Prediction by arg-max. Scores are
// expected in [0, 1].
func Decide(kind ModelKind, scores []float64) (Prediction, error) {
	labels, ok := Labels[kind]
	if !ok {
		return Prediction{}, fmt.Errorf("%w: %q", ErrUnknownModelKind, kind)
	}
	if len(scores) != len(labels) {
		return Prediction{}, fmt.Errorf("%w: %d scores for %d labels", ErrBadPrediction, len(scores), len(labels))
	}
	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return Prediction{
		Kind:       kind,
		Label:      labels[best],
		Confidence: scores[best] * 100,
		Scores:     scores,
	}, nil
}

func (c *Client) predict(ctx context.Context, model string, image []byte) ([]float64, error) {
	body, err := json.Marshal(predictRequest{Instances: []predictInstance{{
		Image: b64Value{B64: base64.StdEncoding.EncodeToString(image)},
	}}})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/models/%s:predict", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model server request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("model server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed predictResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPrediction, err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("model server error: %s", parsed.Error)
	}
	if len(parsed.Predictions) == 0 {
		return nil, fmt.Errorf("%w: no predictions", ErrBadPrediction)
	}
	return parsed.Predictions[0], nil
}
