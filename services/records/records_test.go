// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package records

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecordStore(t *testing.T) *RecordStore {
	t.Helper()
	s, err := OpenRecordStore(RecordConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordStore_AddAndList(t *testing.T) {
	s := newTestRecordStore(t)
	ctx := context.Background()

	first, err := s.AddRecord(ctx, "dairy", "Milked 12 litres", "2025-07-17")
	require.NoError(t, err)
	second, err := s.AddRecord(ctx, "Crop", "Sprayed neem on tomato, farmer's own mix", "2025-07-18")
	require.NoError(t, err)

	assert.Equal(t, RecordDairy, first.Type)
	assert.Greater(t, second.ID, first.ID)

	list, err := s.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0])
	assert.Equal(t, first, list[1])
}

func TestRecordStore_DefaultsDateToToday(t *testing.T) {
	s := newTestRecordStore(t)
	s.now = func() time.Time { return time.Date(2025, 7, 17, 9, 0, 0, 0, time.UTC) }

	rec, err := s.AddRecord(context.Background(), "Poultry", "Vaccinated 40 birds", "")
	require.NoError(t, err)
	assert.Equal(t, "2025-07-17", rec.Date)
}

func TestRecordStore_Validation(t *testing.T) {
	s := newTestRecordStore(t)
	ctx := context.Background()

	_, err := s.AddRecord(ctx, "Fishery", "x", "2025-07-17")
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = s.AddRecord(ctx, "Crop", "   ", "2025-07-17")
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = s.AddRecord(ctx, "Crop", "Sowed wheat", "17/07/2025")
	assert.ErrorIs(t, err, ErrInvalidRecord)

	list, err := s.ListRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestParseRecordType(t *testing.T) {
	rt, err := ParseRecordType(" POULTRY ")
	require.NoError(t, err)
	assert.Equal(t, RecordPoultry, rt)

	_, err = ParseRecordType("")
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestRecordStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	cfg := RecordConfig{Path: filepath.Join(t.TempDir(), "records.db")}

	s, err := OpenRecordStore(cfg)
	require.NoError(t, err)
	first, err := s.AddRecord(ctx, "poultry", "Collected 40 eggs", "2025-07-17")
	require.NoError(t, err)
	second, err := s.AddRecord(ctx, "dairy", "Milked 11 litres", "2025-07-18")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenRecordStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	list, err := s.ListRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Record{second, first}, list)

	third, err := s.AddRecord(ctx, "crop", "Weeded the maize plot", "2025-07-19")
	require.NoError(t, err)
	assert.Greater(t, third.ID, second.ID, "ids continue after a reopen")
}
