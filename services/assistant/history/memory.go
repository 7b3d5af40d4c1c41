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
	"sync"

	"github.com/AleutianAI/FarminAI/services/assistant"
)

// MemoryStore keeps conversations in a map. Contents are lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]assistant.Turn
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{turns: make(map[string][]assistant.Turn)}
}

// Load implements assistant.HistoryStore.
func (s *MemoryStore) Load(_ context.Context, sessionID string) ([]assistant.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.turns[sessionID]
	out := make([]assistant.Turn, len(stored))
	copy(out, stored)
	return out, nil
}

// Append implements assistant.HistoryStore.
func (s *MemoryStore) Append(_ context.Context, sessionID string, turns ...assistant.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[sessionID] = append(s.turns[sessionID], turns...)
	return nil
}

// Delete implements assistant.HistoryStore.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, sessionID)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
