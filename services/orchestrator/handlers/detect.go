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

	"github.com/AleutianAI/FarminAI/services/detection"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// HandleDetect classifies an uploaded image with the poultry or crop
// disease model named by the model_kind form field.
func HandleDetect(classifier detection.Classifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleDetect")
		defer span.End()

		kind, err := detection.ParseModelKind(c.PostForm("model_kind"))
		if err != nil {
			fail(c, span, http.StatusBadRequest, "model_kind must be poultry or crop", err)
			return
		}
		data, _, err := readUpload(c, "image")
		if err != nil {
			fail(c, span, http.StatusBadRequest, err.Error(), err)
			return
		}

		pred, err := classifier.Predict(ctx, data, kind)
		if err != nil {
			if errors.Is(err, detection.ErrEmptyImage) {
				fail(c, span, http.StatusBadRequest, err.Error(), err)
				return
			}
			fail(c, span, http.StatusBadGateway, "disease model unavailable", err)
			return
		}
		span.SetAttributes(attribute.String("prediction.label", pred.Label))
		c.JSON(http.StatusOK, gin.H{
			"prediction": pred,
			"display":    pred.String(),
		})
	}
}
