// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package badger opens and manages the embedded BadgerDB used for binary
// blobs such as disease reference images.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrPathRequired is returned when a persistent database has no path.
var ErrPathRequired = errors.New("path is required for persistent database")

// Config holds configuration for a BadgerDB instance.
type Config struct {
	// Path is the data directory. Ignored when InMemory is true.
	Path string `yaml:"path"`

	// InMemory keeps everything in RAM. Used by tests.
	InMemory bool `yaml:"in_memory"`

	// SyncWrites fsyncs every commit.
	SyncWrites bool `yaml:"sync_writes"`

	// GCInterval is how often value log GC runs. Zero disables it.
	GCInterval time.Duration `yaml:"gc_interval"`

	// GCDiscardRatio is the garbage ratio that triggers a rewrite.
	GCDiscardRatio float64 `yaml:"gc_discard_ratio"`

	// Logger receives BadgerDB's own log lines. Nil silences them.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns durable settings for a data directory.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     10 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns settings for a throwaway database.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// slogAdapter satisfies badger.Logger.
type slogAdapter struct {
	logger *slog.Logger
}

func (l slogAdapter) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l slogAdapter) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l slogAdapter) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l slogAdapter) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// DB is an open BadgerDB plus its background GC loop.
//
// # Thread Safety
//
// Safe for concurrent use. Close must be called exactly once.
type DB struct {
	*badger.DB
	cfg Config

	stopGC context.CancelFunc
	gcDone sync.WaitGroup

	seqMu     sync.Mutex
	sequences map[string]*badger.Sequence
}

// Open opens a database and starts value log GC when configured.
//
// # Inputs
//
//   - cfg: Path is required unless InMemory is set. The directory is created
//     if missing.
//
// # Outputs
//
//   - *DB: The database. Caller must Close it.
//   - error: ErrPathRequired, or a wrapped open failure.
func Open(cfg Config) (*DB, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, ErrPathRequired
		}
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(slogAdapter{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	db := &DB{DB: bdb, cfg: cfg, sequences: make(map[string]*badger.Sequence)}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		ratio := cfg.GCDiscardRatio
		if ratio <= 0 || ratio >= 1 {
			ratio = 0.5
		}
		ctx, cancel := context.WithCancel(context.Background())
		db.stopGC = cancel
		db.gcDone.Add(1)
		go db.runGC(ctx, cfg.GCInterval, ratio)
	}
	return db, nil
}

func (d *DB) runGC(ctx context.Context, interval time.Duration, ratio float64) {
	defer d.gcDone.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := d.DB.RunValueLogGC(ratio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				slog.Warn("badger value log GC failed", "path", d.cfg.Path, "error", err)
			}
		}
	}
}

// Close releases sequences, stops GC and closes the database.
func (d *DB) Close() error {
	if d.stopGC != nil {
		d.stopGC()
		d.gcDone.Wait()
	}
	d.seqMu.Lock()
	for name, seq := range d.sequences {
		if err := seq.Release(); err != nil {
			slog.Warn("failed to release badger sequence", "sequence", name, "error", err)
		}
	}
	d.sequences = nil
	d.seqMu.Unlock()
	return d.DB.Close()
}

// InMemory reports whether the database lives only in RAM.
func (d *DB) InMemory() bool {
	return d.cfg.InMemory
}

// Path returns the data directory, or "" for in-memory databases.
func (d *DB) Path() string {
	if d.cfg.InMemory {
		return ""
	}
	return d.cfg.Path
}

// NextID returns the next value of a named, persistent counter. Values
// start at 1 and are never reused.
func (d *DB) NextID(name string) (uint64, error) {
	d.seqMu.Lock()
	defer d.seqMu.Unlock()

	seq, ok := d.sequences[name]
	if !ok {
		var err error
		seq, err = d.DB.GetSequence([]byte("seq:"+name), 16)
		if err != nil {
			return 0, fmt.Errorf("open sequence %s: %w", name, err)
		}
		d.sequences[name] = seq
	}
	for {
		id, err := seq.Next()
		if err != nil {
			return 0, fmt.Errorf("next %s id: %w", name, err)
		}
		// Sequences start at zero; zero is reserved for "unset".
		if id > 0 {
			return id, nil
		}
	}
}

// Update runs fn in a read-write transaction and commits it.
func (d *DB) Update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	return d.DB.Update(fn)
}

// View runs fn in a read-only transaction.
func (d *DB) View(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	return d.DB.View(fn)
}
