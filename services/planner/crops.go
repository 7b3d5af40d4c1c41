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
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

//go:embed crops.json
var embeddedCrops []byte

// CropProfile describes one crop in the catalogue.
type CropProfile struct {
	Crop       string `json:"crop"`
	Season     string `json:"season"`
	Weather    string `json:"weather"`
	Soil       string `json:"soil"`
	Duration   string `json:"duration"`
	Investment string `json:"investment"`
	Profit     string `json:"profit"`
	HowToStart string `json:"how_to_start"`
}

// ProfitValue extracts the digits of the Profit text as a number, so
// "₹40,000 per acre" becomes 40000. Text with no digits is 0.
func (c CropProfile) ProfitValue() int64 {
	var b strings.Builder
	for _, r := range c.Profit {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	v, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// CropCatalogue is an immutable list of crop profiles.
type CropCatalogue struct {
	crops []CropProfile
}

// CropSuggestion is the result of CropCatalogue.Suggest.
type CropSuggestion struct {
	Season string        `json:"season"`
	Crops  []CropProfile `json:"crops"`
	Best   *CropProfile  `json:"best,omitempty"`
}

var (
	defaultCatalogueOnce sync.Once
	defaultCatalogue     *CropCatalogue
)

// DefaultCropCatalogue returns the built-in catalogue.
func DefaultCropCatalogue() *CropCatalogue {
	defaultCatalogueOnce.Do(func() {
		c, err := ParseCropCatalogue(embeddedCrops)
		if err != nil {
			panic(fmt.Sprintf("planner: embedded crop catalogue: %v", err))
		}
		defaultCatalogue = c
	})
	return defaultCatalogue
}

// LoadCropCatalogue reads a catalogue from a JSON file.
func LoadCropCatalogue(path string) (*CropCatalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read crop catalogue: %w", err)
	}
	return ParseCropCatalogue(data)
}

// ParseCropCatalogue decodes a JSON array of crop profiles.
func ParseCropCatalogue(data []byte) (*CropCatalogue, error) {
	var crops []CropProfile
	if err := json.Unmarshal(data, &crops); err != nil {
		return nil, fmt.Errorf("decode crop catalogue: %w", err)
	}
	for i, c := range crops {
		if strings.TrimSpace(c.Crop) == "" || strings.TrimSpace(c.Season) == "" {
			return nil, fmt.Errorf("crop catalogue entry %d: crop and season are required", i)
		}
	}
	return &CropCatalogue{crops: crops}, nil
}

// Seasons lists the distinct seasons in catalogue order.
func (c *CropCatalogue) Seasons() []string {
	seen := make(map[string]bool)
	var out []string
	for _, crop := range c.crops {
		key := strings.ToLower(crop.Season)
		if !seen[key] {
			seen[key] = true
			out = append(out, crop.Season)
		}
	}
	return out
}

// Suggest returns the crops for a season, matched case-insensitively, and
// the one with the highest profit. An unknown season yields no crops and a
// nil Best.
func (c *CropCatalogue) Suggest(season string) CropSuggestion {
	want := strings.ToLower(strings.TrimSpace(season))
	out := CropSuggestion{Season: strings.TrimSpace(season), Crops: []CropProfile{}}
	for _, crop := range c.crops {
		if strings.ToLower(strings.TrimSpace(crop.Season)) == want {
			out.Crops = append(out.Crops, crop)
		}
	}
	if len(out.Crops) == 0 {
		return out
	}

	ranked := append([]CropProfile(nil), out.Crops...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ProfitValue() > ranked[j].ProfitValue()
	})
	best := ranked[0]
	out.Best = &best
	return out
}
