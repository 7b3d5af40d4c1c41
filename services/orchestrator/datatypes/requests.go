// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes holds the request and response bodies of the HTTP API.
package datatypes

import (
	"fmt"
	"strings"
	"time"

	"github.com/AleutianAI/FarminAI/services/llm"
	"github.com/AleutianAI/FarminAI/services/planner"
	"github.com/AleutianAI/FarminAI/services/records"
	"github.com/go-playground/validator/v10"
)

// MaxTextBytes caps free-text fields such as questions and record details.
const MaxTextBytes = 8 * 1024

// =============================================================================
// Shared Validator Instance
// =============================================================================

var validate *validator.Validate

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("maxbytes", validateMaxBytes)
	_ = validate.RegisterValidation("notblank", validateNotBlank)
	_ = validate.RegisterValidation("language", validateLanguage)
	_ = validate.RegisterValidation("recordtype", validateRecordType)
}

// validateMaxBytes checks byte length, not rune count.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxTextBytes
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// validateLanguage accepts the languages the assistant can hint for.
func validateLanguage(fl validator.FieldLevel) bool {
	return llm.IsSupportedLanguage(fl.Field().String())
}

func validateRecordType(fl validator.FieldLevel) bool {
	_, err := records.ParseRecordType(fl.Field().String())
	return err == nil
}

// Validate runs the struct tags of any request type in this package.
func Validate(v any) error {
	return validate.Struct(v)
}

// =============================================================================
// Assistant
// =============================================================================

// AskRequest is the body of POST /v1/assistant/ask.
//
// # Fields
//
//   - SessionID: Optional. A new UUID is assigned when empty.
//   - Question: Required free text. Blank questions are rejected here; the
//     assistant itself answers them with the clarification message.
//   - Language: Optional ISO 639-1 code, default "en".
type AskRequest struct {
	SessionID string `json:"session_id" validate:"omitempty,max=128"`
	Question  string `json:"question" validate:"required,notblank,maxbytes"`
	Language  string `json:"language" validate:"omitempty,language"`
}

// AskResponse is returned by the ask endpoint.
type AskResponse struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
	Language  string `json:"language"`
	Outcome   string `json:"outcome"`
	Attempts  int    `json:"attempts"`
}

// HistoryTurn is one entry of a session history response.
type HistoryTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// TranslateRequest is the body of POST /v1/translate.
type TranslateRequest struct {
	Text   string `json:"text" validate:"required,maxbytes"`
	Target string `json:"target" validate:"required,min=2,max=8"`
}

// =============================================================================
// Records
// =============================================================================

// RecordRequest is the body of POST /v1/records. Date is optional and
// defaults to today.
type RecordRequest struct {
	Type   string `json:"type" validate:"required,recordtype"`
	Detail string `json:"detail" validate:"required,notblank,maxbytes"`
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// =============================================================================
// Planner
// =============================================================================

// ProfitRequest is the body of POST /v1/planner/profit.
type ProfitRequest struct {
	Crop       string  `json:"crop" validate:"max=128"`
	Investment float64 `json:"investment" validate:"gte=0"`
	Bags       int     `json:"bags" validate:"gte=0"`
	Price      float64 `json:"price_per_bag" validate:"gte=0"`
}

// CompareRequest is the body of POST /v1/planner/profit/compare. Data holds
// "Crop,Investment,Bags,Price" lines.
type CompareRequest struct {
	Data string `json:"data" validate:"required,max=65536"`
}

// WeatherRequest is the body of POST /v1/planner/weather. Either District
// names a recorded forecast or Readings carries the forecast inline.
type WeatherRequest struct {
	District string            `json:"district" validate:"required_without=Readings,omitempty,max=64"`
	Readings []planner.Reading `json:"readings" validate:"required_without=District,omitempty,max=64"`
}

// =============================================================================
// Errors
// =============================================================================

// ValidationMessage flattens validator errors into one client-facing line.
func ValidationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return "invalid request body"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return "invalid request: " + strings.Join(parts, "; ")
}
