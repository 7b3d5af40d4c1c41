// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"errors"
	"strings"
	"testing"

	"github.com/AleutianAI/FarminAI/services/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskRequest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     AskRequest
		wantErr bool
	}{
		{"plain question", AskRequest{Question: "How do I treat leaf curl?"}, false},
		{"with language", AskRequest{Question: "Leaf curl?", Language: "te"}, false},
		{"language case", AskRequest{Question: "Leaf curl?", Language: "TE"}, false},
		{"missing question", AskRequest{}, true},
		{"blank question", AskRequest{Question: "\t \n"}, true},
		{"unsupported language", AskRequest{Question: "Leaf curl?", Language: "klingon"}, true},
		{"long session id", AskRequest{Question: "Leaf curl?", SessionID: strings.Repeat("s", 129)}, true},
		{"question at byte cap", AskRequest{Question: strings.Repeat("a", MaxTextBytes)}, false},
		// 2731 three-byte runes exceed the byte cap with fewer runes than bytes.
		{"multibyte over cap", AskRequest{Question: strings.Repeat("ఆ", MaxTextBytes/3+1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecordRequest_Validation(t *testing.T) {
	assert.NoError(t, Validate(RecordRequest{Type: "Dairy", Detail: "12 litres", Date: "2025-01-31"}))
	assert.NoError(t, Validate(RecordRequest{Type: "poultry", Detail: "40 eggs"}))
	assert.Error(t, Validate(RecordRequest{Type: "goats", Detail: "fed"}))
	assert.Error(t, Validate(RecordRequest{Type: "crop", Detail: "sowed", Date: "2025-02-30"}))
}

func TestWeatherRequest_Validation(t *testing.T) {
	assert.NoError(t, Validate(WeatherRequest{District: "warangal"}))
	assert.NoError(t, Validate(WeatherRequest{Readings: []planner.Reading{{Temp: 25}}}))
	assert.Error(t, Validate(WeatherRequest{}))
}

func TestProfitRequest_Validation(t *testing.T) {
	assert.NoError(t, Validate(ProfitRequest{Crop: "Rice", Investment: 35000, Bags: 40, Price: 1100}))
	assert.Error(t, Validate(ProfitRequest{Crop: "Rice", Investment: -5}))
	assert.Error(t, Validate(ProfitRequest{Crop: "Rice", Bags: -1}))
}

func TestValidationMessage(t *testing.T) {
	err := Validate(AskRequest{Language: "xx"})
	require.Error(t, err)

	msg := ValidationMessage(err)
	assert.True(t, strings.HasPrefix(msg, "invalid request: "), msg)
	assert.Contains(t, msg, "question failed required")
	assert.Contains(t, msg, "language failed language")

	assert.Equal(t, "invalid request body", ValidationMessage(errors.New("eof")))
}
