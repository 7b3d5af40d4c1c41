// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/AleutianAI/FarminAI/pkg/ux"
	"github.com/AleutianAI/FarminAI/services/planner"
	"github.com/spf13/cobra"
)

func loadCrops() (*planner.CropCatalogue, error) {
	if cfg.Data.CropCatalogue != "" {
		return planner.LoadCropCatalogue(cfg.Data.CropCatalogue)
	}
	return planner.DefaultCropCatalogue(), nil
}

func loadForecasts() (*planner.ForecastBook, error) {
	if cfg.Data.Forecasts != "" {
		return planner.LoadForecastBook(cfg.Data.Forecasts)
	}
	return planner.DefaultForecastBook(), nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func runCrops(_ *cobra.Command, args []string) error {
	catalogue, err := loadCrops()
	if err != nil {
		return err
	}
	suggestion := catalogue.Suggest(args[0])
	if len(suggestion.Crops) == 0 {
		return fmt.Errorf("no crops for season %q (try: %s)", args[0], strings.Join(catalogue.Seasons(), ", "))
	}

	ux.Title("Crops for " + suggestion.Season)
	rows := make([][]string, 0, len(suggestion.Crops))
	for _, c := range suggestion.Crops {
		rows = append(rows, []string{c.Crop, c.Weather, c.Soil, c.Duration, c.Investment, c.Profit})
	}
	ux.Table([]string{"Crop", "Weather", "Soil", "Duration", "Investment", "Profit"}, rows)
	if best := suggestion.Best; best != nil {
		ux.Success(fmt.Sprintf("Best pick: %s (%s)", best.Crop, best.Profit))
		ux.Info("How to start: " + best.HowToStart)
	}
	return nil
}

func runProfit(cmd *cobra.Command, _ []string) error {
	if !cmd.Flags().Changed("bags") || !cmd.Flags().Changed("price") {
		return fmt.Errorf("profit needs --bags and --price")
	}
	est, err := planner.EstimateProfit(profitCrop, profitInvestment, profitBags, profitPrice)
	if err != nil {
		return err
	}
	printEstimate(est)
	return nil
}

func printEstimate(est planner.ProfitEstimate) {
	pairs := [][2]string{
		{"investment", money(est.Investment)},
		{"revenue", money(est.Revenue)},
		{"profit", money(est.Profit)},
		{"status", string(est.Status)},
	}
	if est.Crop != "" {
		pairs = append([][2]string{{"crop", est.Crop}}, pairs...)
	}
	ux.KeyValues(pairs)

	switch est.Status {
	case planner.StatusProfit:
		ux.Success("Profit of " + money(est.Profit))
	case planner.StatusLoss:
		ux.Warning("Loss of " + money(-est.Profit))
	default:
		ux.Info("Break-even")
	}
}

func runProfitCompare(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	cmp, err := planner.CompareCrops(r)
	if err != nil {
		return err
	}
	for _, rowErr := range cmp.Errors {
		ux.Warning(fmt.Sprintf("line %d skipped: %s", rowErr.Line, rowErr.Error))
	}
	if len(cmp.Rows) == 0 {
		return fmt.Errorf("no valid rows to compare")
	}

	rows := make([][]string, 0, len(cmp.Rows))
	for _, est := range cmp.Rows {
		rows = append(rows, []string{
			est.Crop, money(est.Investment), strconv.Itoa(est.Bags), money(est.Price),
			money(est.Revenue), money(est.Profit), string(est.Status),
		})
	}
	ux.Table([]string{"Crop", "Investment", "Bags", "Price", "Revenue", "Profit", "Status"}, rows)
	if best, ok := cmp.Best(); ok {
		ux.Success(fmt.Sprintf("Most profitable: %s (%s)", best.Crop, money(best.Profit)))
	}
	return nil
}

func runWeather(_ *cobra.Command, args []string) error {
	book, err := loadForecasts()
	if err != nil {
		return err
	}
	plan, err := book.Plan(args[0])
	if err != nil {
		return fmt.Errorf("%w (known: %s)", err, strings.Join(book.Districts(), ", "))
	}

	ux.KeyValues([][2]string{
		{"district", plan.District},
		{"average_temp", strconv.FormatFloat(plan.AverageTemp, 'f', 2, 64) + "°C"},
		{"climate", string(plan.Climate)},
	})
	ux.Success("Recommended: " + strings.Join(plan.Crops, ", "))
	return nil
}
