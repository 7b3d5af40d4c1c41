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
	"net/http"
	"testing"

	"github.com/AleutianAI/FarminAI/services/planner"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlannerRouter() *gin.Engine {
	router := gin.New()
	router.POST("/profit", HandleProfit())
	router.POST("/profit/compare", HandleCompareProfit())
	router.GET("/crops", HandleSuggestCrops(planner.DefaultCropCatalogue()))
	router.POST("/weather", HandleWeatherPlan(planner.DefaultForecastBook()))
	return router
}

func TestHandleProfit(t *testing.T) {
	router := newPlannerRouter()

	w := doJSON(t, router, http.MethodPost, "/profit", map[string]any{
		"crop": "Maize", "investment": 40000, "bags": 50, "price_per_bag": 1200,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.EqualValues(t, 60000, body["revenue"])
	assert.EqualValues(t, 20000, body["profit"])
	assert.Equal(t, "profit", body["status"])

	w = doJSON(t, router, http.MethodPost, "/profit", map[string]any{
		"crop": "Maize", "investment": -1, "bags": 50, "price_per_bag": 1200,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCompareProfit(t *testing.T) {
	router := newPlannerRouter()

	w := doJSON(t, router, http.MethodPost, "/profit/compare", map[string]string{
		"data": "Crop,Investment,Bags,Price\nRice,35000,40,1100\nCotton,60000,abc,2000\nWheat,32000,45,1000\n",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Len(t, body["rows"], 2)
	assert.Len(t, body["errors"], 1)
	best, ok := body["best"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Wheat", best["crop"])

	w = doJSON(t, router, http.MethodPost, "/profit/compare", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSuggestCrops(t *testing.T) {
	router := newPlannerRouter()

	w := doJSON(t, router, http.MethodGet, "/crops?season=Monsoon", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["crops"], 3)
	best, ok := body["best"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Cotton", best["crop"])

	w = doJSON(t, router, http.MethodGet, "/crops", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []any{"Summer", "Monsoon", "Winter"}, decode(t, w)["seasons"])
}

func TestHandleWeatherPlan(t *testing.T) {
	router := newPlannerRouter()

	w := doJSON(t, router, http.MethodPost, "/weather", map[string]string{"district": "Hyderabad"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, string(planner.ClimateHot), body["climate"])
	assert.Len(t, body["readings"], planner.ForecastWindow)

	w = doJSON(t, router, http.MethodPost, "/weather", map[string]any{
		"readings": []map[string]any{{"temp": 15, "humidity": 70, "condition": "clear sky"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, string(planner.ClimateCool), decode(t, w)["climate"])

	w = doJSON(t, router, http.MethodPost, "/weather", map[string]string{"district": "atlantis"})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, decode(t, w)["districts"])

	w = doJSON(t, router, http.MethodPost, "/weather", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
