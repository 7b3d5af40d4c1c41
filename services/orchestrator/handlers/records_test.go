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
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	bstore "github.com/AleutianAI/FarminAI/pkg/storage/badger"
	"github.com/AleutianAI/FarminAI/services/records"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecordRouter(t *testing.T) *gin.Engine {
	t.Helper()
	store, err := records.OpenRecordStore(records.RecordConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	router := gin.New()
	router.POST("/records", CreateRecord(store))
	router.GET("/records", ListRecords(store))
	return router
}

func newImageRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := bstore.Open(bstore.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := records.NewImageStore(db)

	router := gin.New()
	router.POST("/images", UploadImage(store))
	router.GET("/images", ListImages(store))
	router.GET("/images/:id", GetImage(store))
	router.DELETE("/images/:id", DeleteImage(store))
	return router
}

// brokenRecords fails every call.
type brokenRecords struct{}

func (brokenRecords) AddRecord(context.Context, string, string, string) (records.Record, error) {
	return records.Record{}, errors.New("disk full")
}

func (brokenRecords) ListRecords(context.Context) ([]records.Record, error) {
	return nil, errors.New("disk full")
}

// ============================================================================
// Records
// ============================================================================

func TestCreateAndListRecords(t *testing.T) {
	router := newRecordRouter(t)

	w := doJSON(t, router, http.MethodPost, "/records", map[string]string{
		"type":   "dairy",
		"detail": "Morning milk 12 litres",
		"date":   "2025-03-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "Dairy", created["record_type"])
	assert.Equal(t, "2025-03-01", created["date"])
	assert.NotZero(t, created["id"])

	w = doJSON(t, router, http.MethodPost, "/records", map[string]string{
		"type":   "Poultry",
		"detail": "Vaccinated 40 birds",
		"date":   "2025-03-02",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/records", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list, ok := decode(t, w)["records"].([]any)
	require.True(t, ok)
	assert.Len(t, list, 2)
}

func TestCreateRecord_Validation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]string
	}{
		{"unknown type", map[string]string{"type": "fishery", "detail": "pond cleaned"}},
		{"blank detail", map[string]string{"type": "crop", "detail": "  "}},
		{"bad date", map[string]string{"type": "crop", "detail": "sowed wheat", "date": "01/03/2025"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRecordRouter(t)
			w := doJSON(t, router, http.MethodPost, "/records", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decode(t, w)["error"])
		})
	}
}

func TestRecords_StoreFailure(t *testing.T) {
	router := gin.New()
	router.POST("/records", CreateRecord(brokenRecords{}))
	router.GET("/records", ListRecords(brokenRecords{}))

	w := doJSON(t, router, http.MethodPost, "/records", map[string]string{"type": "crop", "detail": "harvested"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed to store record", decode(t, w)["error"])

	w = doJSON(t, router, http.MethodGet, "/records", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ============================================================================
// Images
// ============================================================================

func TestImageLifecycle(t *testing.T) {
	router := newImageRouter(t)
	png := []byte("\x89PNG\r\n\x1a\nleaf")

	req := multipartRequest(t, "/images",
		map[string]string{"name": "Leaf blight", "category": "crop", "description": "Brown lesions"},
		&upload{field: "image", filename: "blight.png", contentType: "image/png", data: png})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	meta := decode(t, w)
	assert.Equal(t, "Leaf blight", meta["name"])
	assert.Equal(t, "crop", meta["category"])
	assert.EqualValues(t, len(png), meta["size"])
	id := uint64(meta["id"].(float64))

	w = doJSON(t, router, http.MethodGet, "/images?category=crop", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["images"], 1)

	w = doJSON(t, router, http.MethodGet, "/images?category=cattle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["images"])

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/images/%d", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, png, w.Body.Bytes())

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/images/%d", id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/images/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadImage_FallsBackToFilename(t *testing.T) {
	router := newImageRouter(t)

	req := multipartRequest(t, "/images",
		map[string]string{"category": "cattle"},
		&upload{field: "image", filename: "lumpy-skin.jpg", contentType: "image/jpeg", data: []byte("jpeg")})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "lumpy-skin.jpg", decode(t, w)["name"])
}

func TestUploadImage_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		file   *upload
	}{
		{"missing file", map[string]string{"name": "x", "category": "crop"}, nil},
		{"unknown category", map[string]string{"name": "x", "category": "fish"},
			&upload{field: "image", filename: "a.png", contentType: "image/png", data: []byte("a")}},
		{"empty file", map[string]string{"name": "x", "category": "crop"},
			&upload{field: "image", filename: "a.png", contentType: "image/png", data: nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newImageRouter(t)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, multipartRequest(t, "/images", tt.fields, tt.file))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestImageID_Invalid(t *testing.T) {
	router := newImageRouter(t)
	for _, id := range []string{"0", "abc", "-3"} {
		w := doJSON(t, router, http.MethodGet, "/images/"+id, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, id)

		w = doJSON(t, router, http.MethodDelete, "/images/"+id, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
	}

	w := doJSON(t, router, http.MethodDelete, "/images/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
