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
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/FarminAI/services/assistant"
)

func exercise(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	id := "test-" + uuid.NewString()

	turns, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, turns)

	require.NoError(t, store.Append(ctx, id,
		assistant.Turn{Role: assistant.RoleUser, Content: "Which crop suits clay soil?", Timestamp: time.Unix(100, 0).UTC()},
		assistant.Turn{Role: assistant.RoleAssistant, Content: "Rice grows well in clay.", Timestamp: time.Unix(101, 0).UTC()},
	))
	require.NoError(t, store.Append(ctx, id))
	require.NoError(t, store.Append(ctx, id,
		assistant.Turn{Role: assistant.RoleUser, Content: "How much water?", Timestamp: time.Unix(102, 0).UTC()},
	))

	turns, err = store.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, assistant.RoleUser, turns[0].Role)
	assert.Equal(t, "Rice grows well in clay.", turns[1].Content)
	assert.Equal(t, "How much water?", turns[2].Content)
	assert.True(t, turns[2].Timestamp.Equal(time.Unix(102, 0)))

	require.NoError(t, store.Delete(ctx, id))
	turns, err = store.Load(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	exercise(t, store)
	assert.NoError(t, store.Close())
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, "s", assistant.Turn{Role: assistant.RoleUser, Content: "a"}))

	turns, _ := store.Load(ctx, "s")
	turns[0].Content = "mutated"

	again, _ := store.Load(ctx, "s")
	assert.Equal(t, "a", again[0].Content)
}

func TestNewStore(t *testing.T) {
	store, err := NewStore(KindMemory)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = NewStore("")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = NewStore(KindRedis)
	assert.ErrorIs(t, err, ErrMissingRedisClient)

	_, err = NewStore("etcd")
	assert.ErrorIs(t, err, ErrUnknownKind)

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	store, err = NewStore(KindRedis, WithRedisClient(client), WithTTL(time.Minute), WithKeyPrefix("x:"))
	require.NoError(t, err)
	rs, ok := store.(*RedisStore)
	require.True(t, ok)
	assert.Equal(t, time.Minute, rs.ttl)
	assert.Equal(t, "x:abc", rs.key("abc"))
	_ = store.Close()
}

func TestNewRedisStore_Defaults(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	rs := NewRedisStore(client, 0, "")
	assert.Equal(t, DefaultTTL, rs.ttl)
	assert.Equal(t, DefaultKeyPrefix+"s1", rs.key("s1"))
}

func TestRedisStore_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	store := NewRedisStore(client, time.Minute, "")
	defer store.Close()
	ctx := context.Background()

	_, err := store.Load(ctx, "s1")
	assert.Error(t, err)
	assert.Error(t, store.Append(ctx, "s1", assistant.Turn{Role: assistant.RoleUser, Content: "x"}))
	assert.Error(t, store.Delete(ctx, "s1"))
}

// TestRedisStore_Integration runs against a live server when REDIS_ADDR is set.
func TestRedisStore_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}

	store := NewRedisStore(client, time.Minute, "farminai:test:")
	defer store.Close()
	exercise(t, store)
}

func TestRegistryWithMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := assistant.NewSessionRegistry(store)
	first.Get(ctx, "farmer").Append(ctx,
		assistant.Turn{Role: assistant.RoleUser, Content: "hello"},
		assistant.Turn{Role: assistant.RoleAssistant, Content: "Namaste, how can I help?"},
	)

	// A second registry over the same store sees the conversation.
	second := assistant.NewSessionRegistry(store)
	assert.Equal(t, 2, second.Get(ctx, "farmer").Len())
}
