// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyClimate(t *testing.T) {
	assert.Equal(t, ClimateHot, ClassifyClimate(30.01))
	assert.Equal(t, ClimateModerate, ClassifyClimate(30))
	assert.Equal(t, ClimateModerate, ClassifyClimate(20))
	assert.Equal(t, ClimateCool, ClassifyClimate(19.99))
	assert.Equal(t, ClimateCool, ClassifyClimate(-5))
}

func TestPlanFromReadings_UsesFirstFive(t *testing.T) {
	readings := []Reading{{Temp: 20}, {Temp: 20}, {Temp: 20}, {Temp: 20}, {Temp: 20}, {Temp: 90}}
	plan, err := PlanFromReadings(readings)
	require.NoError(t, err)
	assert.Len(t, plan.Readings, ForecastWindow)
	assert.InDelta(t, 20, plan.AverageTemp, 1e-9)
	assert.Equal(t, ClimateModerate, plan.Climate)
	assert.Equal(t, []string{"Rice", "Soybean", "Sugarcane", "Tomato"}, plan.Crops)
}

func TestPlanFromReadings_Empty(t *testing.T) {
	_, err := PlanFromReadings(nil)
	assert.ErrorIs(t, err, ErrNoReadings)
}

func TestForecastBook_Plan(t *testing.T) {
	book := DefaultForecastBook()
	assert.Equal(t, []string{"hyderabad", "nizamabad", "warangal"}, book.Districts())

	tests := []struct {
		district string
		climate  Climate
		avg      float64
	}{
		{"Hyderabad", ClimateHot, 32.36},
		{" warangal ", ClimateModerate, 28.16},
		{"NIZAMABAD", ClimateCool, 18.84},
	}
	for _, tt := range tests {
		plan, err := book.Plan(tt.district)
		require.NoError(t, err, tt.district)
		assert.Equal(t, tt.climate, plan.Climate, tt.district)
		assert.InDelta(t, tt.avg, plan.AverageTemp, 1e-6, tt.district)
		assert.Len(t, plan.Readings, ForecastWindow)
		assert.NotEmpty(t, plan.Readings[0].Condition)
	}

	_, err := book.Plan("Atlantis")
	assert.ErrorIs(t, err, ErrUnknownDistrict)
}

func TestParseForecastBook_Invalid(t *testing.T) {
	_, err := ParseForecastBook([]byte("not json"))
	assert.Error(t, err)
}
