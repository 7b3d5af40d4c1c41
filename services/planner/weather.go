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
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

//go:embed weather.json
var embeddedWeather []byte

// ForecastWindow is how many readings feed the average.
const ForecastWindow = 5

var (
	// ErrNoReadings is returned when there is nothing to average.
	ErrNoReadings = errors.New("no weather readings")

	// ErrUnknownDistrict is returned when no forecast exists for a district.
	ErrUnknownDistrict = errors.New("no weather data for district")
)

// Reading is one forecast block.
type Reading struct {
	Temp      float64 `json:"temp"`
	Humidity  float64 `json:"humidity"`
	Condition string  `json:"condition"`
}

// Climate is the band an average temperature falls in.
type Climate string

const (
	ClimateHot      Climate = "Hot Climate"
	ClimateModerate Climate = "Moderate Climate"
	ClimateCool     Climate = "Cool Climate"
)

var climateCrops = map[Climate][]string{
	ClimateHot:      {"Millets", "Sorghum", "Groundnut", "Cotton"},
	ClimateModerate: {"Rice", "Soybean", "Sugarcane", "Tomato"},
	ClimateCool:     {"Wheat", "Barley", "Mustard", "Peas"},
}

// WeatherPlan is the crop recommendation for a set of readings.
type WeatherPlan struct {
	District    string    `json:"district,omitempty"`
	Readings    []Reading `json:"readings"`
	AverageTemp float64   `json:"average_temp"`
	Climate     Climate   `json:"climate"`
	Crops       []string  `json:"crops"`
}

// ClassifyClimate maps an average temperature in °C to a band: above 30 is
// hot, 20 to 30 inclusive is moderate, anything else is cool.
func ClassifyClimate(avg float64) Climate {
	switch {
	case avg > 30:
		return ClimateHot
	case avg >= 20:
		return ClimateModerate
	default:
		return ClimateCool
	}
}

// PlanFromReadings averages the first ForecastWindow readings and recommends
// crops for the resulting climate band.
func PlanFromReadings(readings []Reading) (WeatherPlan, error) {
	if len(readings) == 0 {
		return WeatherPlan{}, ErrNoReadings
	}
	if len(readings) > ForecastWindow {
		readings = readings[:ForecastWindow]
	}
	var sum float64
	for _, r := range readings {
		sum += r.Temp
	}
	avg := sum / float64(len(readings))
	climate := ClassifyClimate(avg)
	return WeatherPlan{
		Readings:    append([]Reading(nil), readings...),
		AverageTemp: avg,
		Climate:     climate,
		Crops:       append([]string(nil), climateCrops[climate]...),
	}, nil
}

// forecastFile mirrors the OpenWeather forecast layout, keyed by district.
type forecastFile map[string]struct {
	List []struct {
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"list"`
}

// ForecastBook holds recorded forecasts per district.
type ForecastBook struct {
	districts map[string][]Reading
}

var (
	defaultForecastOnce sync.Once
	defaultForecast     *ForecastBook
)

// DefaultForecastBook returns the built-in district forecasts.
func DefaultForecastBook() *ForecastBook {
	defaultForecastOnce.Do(func() {
		b, err := ParseForecastBook(embeddedWeather)
		if err != nil {
			panic(fmt.Sprintf("planner: embedded forecasts: %v", err))
		}
		defaultForecast = b
	})
	return defaultForecast
}

// LoadForecastBook reads forecasts from a JSON file.
func LoadForecastBook(path string) (*ForecastBook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read forecasts: %w", err)
	}
	return ParseForecastBook(data)
}

// ParseForecastBook decodes an OpenWeather-style forecast document.
func ParseForecastBook(data []byte) (*ForecastBook, error) {
	var raw forecastFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode forecasts: %w", err)
	}
	book := &ForecastBook{districts: make(map[string][]Reading, len(raw))}
	for district, f := range raw {
		readings := make([]Reading, 0, len(f.List))
		for _, block := range f.List {
			r := Reading{Temp: block.Main.Temp, Humidity: block.Main.Humidity}
			if len(block.Weather) > 0 {
				r.Condition = block.Weather[0].Description
			}
			readings = append(readings, r)
		}
		book.districts[strings.ToLower(strings.TrimSpace(district))] = readings
	}
	return book, nil
}

// Districts lists known districts alphabetically.
func (b *ForecastBook) Districts() []string {
	out := make([]string, 0, len(b.districts))
	for d := range b.districts {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Plan builds a WeatherPlan for a district, matched case-insensitively.
func (b *ForecastBook) Plan(district string) (WeatherPlan, error) {
	key := strings.ToLower(strings.TrimSpace(district))
	readings, ok := b.districts[key]
	if !ok {
		return WeatherPlan{}, fmt.Errorf("%w: %q", ErrUnknownDistrict, district)
	}
	plan, err := PlanFromReadings(readings)
	if err != nil {
		return WeatherPlan{}, err
	}
	plan.District = key
	return plan, nil
}
