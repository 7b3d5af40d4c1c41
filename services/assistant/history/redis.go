// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AleutianAI/FarminAI/services/assistant"
)

// RedisStore keeps each conversation as a Redis list of JSON-encoded turns.
//
// # Description
//
// Appends are RPUSH plus EXPIRE in one pipeline, so the TTL slides forward
// with every exchange. Loads refresh the TTL as well.
type RedisStore struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// NewRedisStore creates a RedisStore. A non-positive ttl means DefaultTTL and
// an empty prefix means DefaultKeyPrefix.
func NewRedisStore(client *redis.Client, ttl time.Duration, keyPrefix string) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, ttl: ttl, keyPrefix: keyPrefix}
}

// Load implements assistant.HistoryStore.
func (s *RedisStore) Load(ctx context.Context, sessionID string) ([]assistant.Turn, error) {
	key := s.key(sessionID)
	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load history %s: %w", sessionID, err)
	}

	turns := make([]assistant.Turn, 0, len(raw))
	for i, item := range raw {
		var turn assistant.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			slog.Warn("Skipping undecodable history entry",
				"session_id", sessionID, "index", i, "error", err)
			continue
		}
		turns = append(turns, turn)
	}

	if len(raw) > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			slog.Debug("Failed to refresh history TTL", "session_id", sessionID, "error", err)
		}
	}
	return turns, nil
}

// Append implements assistant.HistoryStore.
func (s *RedisStore) Append(ctx context.Context, sessionID string, turns ...assistant.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(turns))
	for _, turn := range turns {
		data, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("failed to encode turn: %w", err)
		}
		values = append(values, data)
	}

	key := s.key(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append history %s: %w", sessionID, err)
	}
	return nil
}

// Delete implements assistant.HistoryStore.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete history %s: %w", sessionID, err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(sessionID string) string {
	return s.keyPrefix + sessionID
}
