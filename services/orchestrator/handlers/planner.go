// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/AleutianAI/FarminAI/services/orchestrator/datatypes"
	"github.com/AleutianAI/FarminAI/services/planner"
	"github.com/gin-gonic/gin"
)

// HandleProfit estimates the profit of a single harvest.
func HandleProfit() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := handlerTracer.Start(c.Request.Context(), "HandleProfit")
		defer span.End()

		var req datatypes.ProfitRequest
		if !bind(c, span, &req) {
			return
		}
		est, err := planner.EstimateProfit(req.Crop, req.Investment, req.Bags, req.Price)
		if err != nil {
			fail(c, span, http.StatusBadRequest, err.Error(), err)
			return
		}
		c.JSON(http.StatusOK, est)
	}
}

// HandleCompareProfit estimates several crops from CSV-style lines.
func HandleCompareProfit() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := handlerTracer.Start(c.Request.Context(), "HandleCompareProfit")
		defer span.End()

		var req datatypes.CompareRequest
		if !bind(c, span, &req) {
			return
		}
		cmp, err := planner.CompareCrops(strings.NewReader(req.Data))
		if err != nil {
			fail(c, span, http.StatusBadRequest, "could not read comparison data", err)
			return
		}
		resp := gin.H{"rows": cmp.Rows, "errors": cmp.Errors}
		if best, ok := cmp.Best(); ok {
			resp["best"] = best
		}
		c.JSON(http.StatusOK, resp)
	}
}

// HandleSuggestCrops lists catalogue crops for the season query parameter.
func HandleSuggestCrops(catalogue *planner.CropCatalogue) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := handlerTracer.Start(c.Request.Context(), "HandleSuggestCrops")
		defer span.End()

		season := c.Query("season")
		if strings.TrimSpace(season) == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "season query parameter is required",
				"seasons": catalogue.Seasons(),
			})
			return
		}
		c.JSON(http.StatusOK, catalogue.Suggest(season))
	}
}

// HandleWeatherPlan recommends crops from a recorded district forecast or
// from inline readings.
func HandleWeatherPlan(forecasts *planner.ForecastBook) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := handlerTracer.Start(c.Request.Context(), "HandleWeatherPlan")
		defer span.End()

		var req datatypes.WeatherRequest
		if !bind(c, span, &req) {
			return
		}

		var (
			plan planner.WeatherPlan
			err  error
		)
		if len(req.Readings) > 0 {
			plan, err = planner.PlanFromReadings(req.Readings)
		} else {
			plan, err = forecasts.Plan(req.District)
		}
		if err != nil {
			if errors.Is(err, planner.ErrUnknownDistrict) {
				span.RecordError(err)
				c.JSON(http.StatusNotFound, gin.H{
					"error":     err.Error(),
					"districts": forecasts.Districts(),
				})
				return
			}
			fail(c, span, http.StatusBadRequest, err.Error(), err)
			return
		}
		c.JSON(http.StatusOK, plan)
	}
}
