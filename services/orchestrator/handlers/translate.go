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

	"github.com/AleutianAI/FarminAI/services/orchestrator/datatypes"
	"github.com/AleutianAI/FarminAI/services/translate"
	"github.com/gin-gonic/gin"
)

// HandleTranslate translates free text. Translation failures return the
// input unchanged, so this endpoint only fails on bad requests.
func HandleTranslate(translator translate.Translator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleTranslate")
		defer span.End()

		var req datatypes.TranslateRequest
		if !bind(c, span, &req) {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"text":   translator.Translate(ctx, req.Text, req.Target),
			"target": req.Target,
		})
	}
}
