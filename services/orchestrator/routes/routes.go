// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"net/http"

	"github.com/AleutianAI/FarminAI/services/assistant"
	"github.com/AleutianAI/FarminAI/services/detection"
	"github.com/AleutianAI/FarminAI/services/orchestrator/handlers"
	"github.com/AleutianAI/FarminAI/services/orchestrator/middleware"
	"github.com/AleutianAI/FarminAI/services/planner"
	"github.com/AleutianAI/FarminAI/services/speech"
	"github.com/AleutianAI/FarminAI/services/translate"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the collaborators the routes close over. Nil optional
// fields fall back as noted.
type Dependencies struct {
	Assistant handlers.Responder
	Sessions  *assistant.SessionRegistry

	// Translator defaults to translate.Noop.
	Translator translate.Translator

	Records handlers.RecordStore
	Images  handlers.ImageStore

	Classifier  detection.Classifier
	Transcriber speech.Transcriber

	// Crops and Forecasts default to the built-in data.
	Crops     *planner.CropCatalogue
	Forecasts *planner.ForecastBook

	// AskLimiter, when set, rate-limits the ask endpoint per session.
	AskLimiter *middleware.SessionLimiter

	// AdminToken guards record and image writes. Empty leaves them open.
	AdminToken string

	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// SetupRoutes registers every FarminAI route on router. Optional
// collaborators that are nil leave their routes unregistered.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	if deps.Translator == nil {
		deps.Translator = translate.Noop{}
	}
	if deps.Crops == nil {
		deps.Crops = planner.DefaultCropCatalogue()
	}
	if deps.Forecasts == nil {
		deps.Forecasts = planner.DefaultForecastBook()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		assistantGroup := v1.Group("/assistant")
		{
			ask := []gin.HandlerFunc{}
			if deps.AskLimiter != nil {
				ask = append(ask, middleware.RateLimit(deps.AskLimiter))
			}
			ask = append(ask, handlers.HandleAsk(deps.Assistant, deps.Sessions))
			assistantGroup.POST("/ask", ask...)

			sessions := assistantGroup.Group("/sessions")
			{
				sessions.GET("/:sessionId/history", handlers.GetSessionHistory(deps.Sessions))
				sessions.DELETE("/:sessionId", handlers.DeleteSession(deps.Sessions))
			}
		}

		v1.POST("/translate", handlers.HandleTranslate(deps.Translator))

		admin := middleware.RequireAdmin(deps.AdminToken)

		if deps.Records != nil {
			v1.POST("/records", admin, handlers.CreateRecord(deps.Records))
			v1.GET("/records", handlers.ListRecords(deps.Records))
		}

		if deps.Images != nil {
			images := v1.Group("/images")
			{
				images.POST("", admin, handlers.UploadImage(deps.Images))
				images.GET("", handlers.ListImages(deps.Images))
				images.GET("/:id", handlers.GetImage(deps.Images))
				images.DELETE("/:id", admin, handlers.DeleteImage(deps.Images))
			}
		}

		if deps.Classifier != nil {
			v1.POST("/detect", handlers.HandleDetect(deps.Classifier))
		}
		if deps.Transcriber != nil {
			v1.POST("/speech/transcribe", handlers.HandleTranscribe(deps.Transcriber))
		}

		plannerGroup := v1.Group("/planner")
		{
			plannerGroup.POST("/profit", handlers.HandleProfit())
			plannerGroup.POST("/profit/compare", handlers.HandleCompareProfit())
			plannerGroup.GET("/crops", handlers.HandleSuggestCrops(deps.Crops))
			plannerGroup.POST("/weather", handlers.HandleWeatherPlan(deps.Forecasts))
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
}
