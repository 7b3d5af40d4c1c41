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

	"github.com/AleutianAI/FarminAI/services/speech"
	"github.com/gin-gonic/gin"
)

// HandleTranscribe converts an uploaded audio file to text. Recognition
// failures still return 200 with the apology text and recognized=false.
func HandleTranscribe(transcriber speech.Transcriber) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleTranscribe")
		defer span.End()

		audio, header, err := readUpload(c, "audio")
		if err != nil {
			fail(c, span, http.StatusBadRequest, err.Error(), err)
			return
		}
		text := transcriber.Transcribe(ctx, audio, header.Filename)
		c.JSON(http.StatusOK, gin.H{
			"text":       text,
			"recognized": !speech.IsApology(text),
		})
	}
}
