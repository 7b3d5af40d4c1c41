// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package planner holds the farm planning tools: profit estimates, crop
// suggestions by season and weather-based crop planning.
package planner

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrInvalidInput is returned for negative or non-numeric amounts.
var ErrInvalidInput = errors.New("invalid planner input")

// ProfitStatus classifies an estimate.
type ProfitStatus string

const (
	StatusProfit    ProfitStatus = "profit"
	StatusLoss      ProfitStatus = "loss"
	StatusBreakEven ProfitStatus = "break-even"
)

// ProfitEstimate is the outcome of selling a harvest.
type ProfitEstimate struct {
	Crop       string       `json:"crop"`
	Investment float64      `json:"investment"`
	Bags       int          `json:"bags"`
	Price      float64      `json:"price_per_bag"`
	Revenue    float64      `json:"revenue"`
	Profit     float64      `json:"profit"`
	Status     ProfitStatus `json:"status"`
}

// EstimateProfit computes revenue as bags times price and profit as revenue
// minus investment.
func EstimateProfit(crop string, investment float64, bags int, price float64) (ProfitEstimate, error) {
	if investment < 0 || bags < 0 || price < 0 {
		return ProfitEstimate{}, fmt.Errorf("%w: amounts must not be negative", ErrInvalidInput)
	}
	revenue := float64(bags) * price
	profit := revenue - investment

	status := StatusBreakEven
	switch {
	case profit > 0:
		status = StatusProfit
	case profit < 0:
		status = StatusLoss
	}
	return ProfitEstimate{
		Crop:       strings.TrimSpace(crop),
		Investment: investment,
		Bags:       bags,
		Price:      price,
		Revenue:    revenue,
		Profit:     profit,
		Status:     status,
	}, nil
}

// RowError reports a comparison line that could not be parsed.
type RowError struct {
	Line  int    `json:"line"`
	Text  string `json:"text"`
	Error string `json:"error"`
}

// Comparison is the result of CompareCrops.
type Comparison struct {
	Rows   []ProfitEstimate `json:"rows"`
	Errors []RowError       `json:"errors,omitempty"`
}

// Best returns the row with the highest profit. Ties keep the earlier row.
func (c Comparison) Best() (ProfitEstimate, bool) {
	if len(c.Rows) == 0 {
		return ProfitEstimate{}, false
	}
	best := c.Rows[0]
	for _, r := range c.Rows[1:] {
		if r.Profit > best.Profit {
			best = r
		}
	}
	return best, true
}

// CompareCrops estimates every "Crop,Investment,Bags,Price" line of r.
//
// Lines without exactly four fields are skipped silently, as is a header
// row whose first field is "Crop". Lines with four
// fields that fail to parse are reported in Errors and the rest still count.
func CompareCrops(r io.Reader) (Comparison, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	out := Comparison{Rows: []ProfitEstimate{}}
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Comparison{}, fmt.Errorf("read comparison data: %w", err)
		}
		if len(fields) != 4 {
			continue
		}
		line, _ := reader.FieldPos(0)
		if isHeader(fields) {
			continue
		}

		est, err := parseRow(fields)
		if err != nil {
			out.Errors = append(out.Errors, RowError{
				Line:  line,
				Text:  strings.Join(fields, ","),
				Error: err.Error(),
			})
			continue
		}
		out.Rows = append(out.Rows, est)
	}
	return out, nil
}

func parseRow(fields []string) (ProfitEstimate, error) {
	investment, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return ProfitEstimate{}, fmt.Errorf("%w: investment %q", ErrInvalidInput, fields[1])
	}
	bags, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return ProfitEstimate{}, fmt.Errorf("%w: bags %q", ErrInvalidInput, fields[2])
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
	if err != nil {
		return ProfitEstimate{}, fmt.Errorf("%w: price %q", ErrInvalidInput, fields[3])
	}
	return EstimateProfit(fields[0], investment, bags, price)
}

func isHeader(fields []string) bool {
	return strings.EqualFold(strings.TrimSpace(fields[0]), "crop")
}
