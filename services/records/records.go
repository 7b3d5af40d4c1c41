// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package records stores farm records in an embedded tinySQL table and
// disease reference images as BadgerDB blobs.
package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tinysql "github.com/SimonWaldherr/tinySQL"
)

// DateLayout is the storage and wire format of record dates.
const DateLayout = "2006-01-02"

const tenant = "default"

// RecordType is the farm area a record belongs to.
type RecordType string

const (
	RecordDairy   RecordType = "Dairy"
	RecordPoultry RecordType = "Poultry"
	RecordCrop    RecordType = "Crop"
)

var (
	// ErrInvalidRecord is returned for an unknown type, blank detail or bad date.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrNotFound is returned when an id does not exist.
	ErrNotFound = errors.New("not found")
)

// ParseRecordType normalizes a record type name, case-insensitively.
func ParseRecordType(s string) (RecordType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dairy":
		return RecordDairy, nil
	case "poultry":
		return RecordPoultry, nil
	case "crop":
		return RecordCrop, nil
	}
	return "", fmt.Errorf("%w: unknown record type %q", ErrInvalidRecord, s)
}

// Record is one row of the farm record book.
type Record struct {
	ID     int64      `json:"id"`
	Type   RecordType `json:"record_type"`
	Detail string     `json:"detail"`
	Date   string     `json:"date"`
}

// RecordConfig selects where the record table lives.
type RecordConfig struct {
	// Path is the tinySQL disk directory, one file per table. Empty keeps
	// records in memory only.
	Path string `yaml:"path"`
}

// RecordStore is the records table.
//
// # Thread Safety
//
// Safe for concurrent use; statements are serialized on one mutex.
type RecordStore struct {
	mu     sync.Mutex
	db     *tinysql.DB
	nextID int64
	now    func() time.Time
}

// OpenRecordStore opens (or creates) the records table.
func OpenRecordStore(cfg RecordConfig) (*RecordStore, error) {
	storage := tinysql.StorageConfig{Mode: tinysql.ModeMemory}
	if cfg.Path != "" {
		storage = tinysql.StorageConfig{Mode: tinysql.ModeDisk, Path: cfg.Path}
	}
	db, err := tinysql.OpenDB(storage)
	if err != nil {
		return nil, fmt.Errorf("open record database: %w", err)
	}

	s := &RecordStore{db: db, now: time.Now}
	if err := s.exec(context.Background(),
		"CREATE TABLE IF NOT EXISTS records (id INT, record_type TEXT, detail TEXT, date TEXT)"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create records table: %w", err)
	}
	s.nextID = s.maxID() + 1
	return s, nil
}

// AddRecord appends a record and returns it with its assigned id.
//
// # Inputs
//
//   - recordType: Dairy, Poultry or Crop, any case.
//   - detail: Free text; must not be blank.
//   - date: YYYY-MM-DD. Empty means today.
func (s *RecordStore) AddRecord(ctx context.Context, recordType, detail, date string) (Record, error) {
	rt, err := ParseRecordType(recordType)
	if err != nil {
		return Record{}, err
	}
	detail = strings.TrimSpace(detail)
	if detail == "" {
		return Record{}, fmt.Errorf("%w: detail must not be empty", ErrInvalidRecord)
	}
	date = strings.TrimSpace(date)
	if date == "" {
		date = s.now().Format(DateLayout)
	} else if _, err := time.Parse(DateLayout, date); err != nil {
		return Record{}, fmt.Errorf("%w: date must be YYYY-MM-DD: %v", ErrInvalidRecord, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := Record{ID: s.nextID, Type: rt, Detail: detail, Date: date}
	q := fmt.Sprintf("INSERT INTO records VALUES (%d, '%s', '%s', '%s')",
		rec.ID, escapeSQ(string(rec.Type)), escapeSQ(rec.Detail), escapeSQ(rec.Date))
	if err := s.execLocked(ctx, q); err != nil {
		return Record{}, fmt.Errorf("insert record: %w", err)
	}
	s.nextID++
	return rec, nil
}

// ListRecords returns every record, newest first.
func (s *RecordStore) ListRecords(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []Record{}
	err := s.queryLocked(ctx, "SELECT id, record_type, detail, date FROM records ORDER BY id DESC",
		func(col columnGetter) {
			idVal, ok := col("id")
			if !ok {
				return
			}
			typ, _ := col("record_type")
			detail, _ := col("detail")
			date, _ := col("date")
			out = append(out, Record{
				ID:     toInt64(idVal),
				Type:   RecordType(fmt.Sprint(typ)),
				Detail: fmt.Sprint(detail),
				Date:   fmt.Sprint(date),
			})
		})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

// Close flushes and closes the database.
func (s *RecordStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// columnGetter reads one column of the current row.
type columnGetter func(col string) (any, bool)

func (s *RecordStore) exec(ctx context.Context, q string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.execLocked(ctx, q)
}

func (s *RecordStore) execLocked(ctx context.Context, q string) error {
	stmt, err := tinysql.ParseSQL(q)
	if err != nil {
		return fmt.Errorf("parse %q: %w", q, err)
	}
	_, err = tinysql.Execute(ctx, s.db, tenant, stmt)
	return err
}

// queryLocked runs a SELECT and calls fn once per result row.
func (s *RecordStore) queryLocked(ctx context.Context, q string, fn func(col columnGetter)) error {
	stmt, err := tinysql.ParseSQL(q)
	if err != nil {
		return fmt.Errorf("parse %q: %w", q, err)
	}
	rs, err := tinysql.Execute(ctx, s.db, tenant, stmt)
	if err != nil {
		return err
	}
	if rs == nil {
		return nil
	}
	for _, row := range rs.Rows {
		fn(func(col string) (any, bool) { return tinysql.GetVal(row, col) })
	}
	return nil
}

func (s *RecordStore) maxID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id int64
	err := s.queryLocked(context.Background(), "SELECT MAX(id) AS mid FROM records", func(col columnGetter) {
		if v, ok := col("mid"); ok && v != nil {
			id = toInt64(v)
		}
	})
	if err != nil || id < 0 {
		return 0
	}
	return id
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func escapeSQ(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
