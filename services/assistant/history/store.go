// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package history provides conversation history stores for assistant
// sessions: an in-process map and a Redis list per session.
package history

import (
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AleutianAI/FarminAI/services/assistant"
)

// Kind selects a store driver.
type Kind string

const (
	KindMemory Kind = "memory"
	KindRedis  Kind = "redis"
)

// DefaultTTL is how long an idle Redis-backed conversation is kept.
const DefaultTTL = 24 * time.Hour

// DefaultKeyPrefix namespaces conversation keys in Redis.
const DefaultKeyPrefix = "farminai:history:"

var (
	// ErrUnknownKind is returned for a driver name other than memory or redis.
	ErrUnknownKind = errors.New("unknown history store kind")

	// ErrMissingRedisClient is returned when the redis driver has no client.
	ErrMissingRedisClient = errors.New("redis history store requires a client")
)

// Store is a closable assistant.HistoryStore.
type Store interface {
	assistant.HistoryStore
	Close() error
}

type storeConfig struct {
	redisClient *redis.Client
	ttl         time.Duration
	keyPrefix   string
}

// Option configures NewStore.
type Option func(*storeConfig)

// WithRedisClient sets the client used by the redis driver.
func WithRedisClient(client *redis.Client) Option {
	return func(c *storeConfig) { c.redisClient = client }
}

// WithTTL sets the idle expiry of Redis conversations.
func WithTTL(ttl time.Duration) Option {
	return func(c *storeConfig) { c.ttl = ttl }
}

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *storeConfig) { c.keyPrefix = prefix }
}

// NewStore builds a history store of the given kind.
func NewStore(kind Kind, opts ...Option) (Store, error) {
	cfg := &storeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	switch kind {
	case KindMemory, "":
		return NewMemoryStore(), nil
	case KindRedis:
		if cfg.redisClient == nil {
			return nil, ErrMissingRedisClient
		}
		return NewRedisStore(cfg.redisClient, cfg.ttl, cfg.keyPrefix), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
