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
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/AleutianAI/FarminAI/services/orchestrator/datatypes"
	"github.com/AleutianAI/FarminAI/services/records"
	"github.com/gin-gonic/gin"
)

// RecordStore is the farm record table.
type RecordStore interface {
	AddRecord(ctx context.Context, recordType, detail, date string) (records.Record, error)
	ListRecords(ctx context.Context) ([]records.Record, error)
}

// ImageStore is the disease reference image store.
type ImageStore interface {
	InsertImage(ctx context.Context, img records.NewImage) (records.ImageMeta, error)
	ListImages(ctx context.Context, category string) ([]records.ImageMeta, error)
	GetImage(ctx context.Context, id uint64) (records.DiseaseImage, error)
	DeleteImage(ctx context.Context, id uint64) error
}

// CreateRecord stores a dairy, poultry or crop record.
func CreateRecord(store RecordStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "CreateRecord")
		defer span.End()

		var req datatypes.RecordRequest
		if !bind(c, span, &req) {
			return
		}
		rec, err := store.AddRecord(ctx, req.Type, req.Detail, req.Date)
		if err != nil {
			if errors.Is(err, records.ErrInvalidRecord) {
				fail(c, span, http.StatusBadRequest, err.Error(), err)
				return
			}
			fail(c, span, http.StatusInternalServerError, "failed to store record", err)
			return
		}
		c.JSON(http.StatusCreated, rec)
	}
}

// ListRecords returns all records, newest first.
func ListRecords(store RecordStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "ListRecords")
		defer span.End()

		recs, err := store.ListRecords(ctx)
		if err != nil {
			fail(c, span, http.StatusInternalServerError, "failed to list records", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": recs})
	}
}

// UploadImage stores a disease reference image from a multipart form with
// fields image, name, category and description.
func UploadImage(store ImageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "UploadImage")
		defer span.End()

		data, header, err := readUpload(c, "image")
		if err != nil {
			fail(c, span, http.StatusBadRequest, err.Error(), err)
			return
		}
		name := c.PostForm("name")
		if name == "" {
			name = header.Filename
		}
		meta, err := store.InsertImage(ctx, records.NewImage{
			Name:        name,
			Category:    c.PostForm("category"),
			Description: c.PostForm("description"),
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
		if err != nil {
			if errors.Is(err, records.ErrInvalidImage) {
				fail(c, span, http.StatusBadRequest, err.Error(), err)
				return
			}
			fail(c, span, http.StatusInternalServerError, "failed to store image", err)
			return
		}
		c.JSON(http.StatusCreated, meta)
	}
}

// ListImages returns image metadata, newest first, optionally filtered by
// the category query parameter.
func ListImages(store ImageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "ListImages")
		defer span.End()

		images, err := store.ListImages(ctx, c.Query("category"))
		if err != nil {
			if errors.Is(err, records.ErrInvalidImage) {
				fail(c, span, http.StatusBadRequest, err.Error(), err)
				return
			}
			fail(c, span, http.StatusInternalServerError, "failed to list images", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"images": images})
	}
}

// GetImage streams the stored bytes of one image.
func GetImage(store ImageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "GetImage")
		defer span.End()

		id, ok := imageID(c)
		if !ok {
			fail(c, span, http.StatusBadRequest, "image id must be a positive integer", nil)
			return
		}
		img, err := store.GetImage(ctx, id)
		if err != nil {
			if errors.Is(err, records.ErrNotFound) {
				fail(c, span, http.StatusNotFound, "image not found", err)
				return
			}
			fail(c, span, http.StatusInternalServerError, "failed to load image", err)
			return
		}
		contentType := img.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.Data(http.StatusOK, contentType, img.Data)
	}
}

// DeleteImage removes one image.
func DeleteImage(store ImageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "DeleteImage")
		defer span.End()

		id, ok := imageID(c)
		if !ok {
			fail(c, span, http.StatusBadRequest, "image id must be a positive integer", nil)
			return
		}
		if err := store.DeleteImage(ctx, id); err != nil {
			if errors.Is(err, records.ErrNotFound) {
				fail(c, span, http.StatusNotFound, "image not found", err)
				return
			}
			fail(c, span, http.StatusInternalServerError, "failed to delete image", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "deleted_image_id": id})
	}
}

func imageID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
