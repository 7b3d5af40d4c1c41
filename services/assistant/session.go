// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// =============================================================================
// Conversation Types
// =============================================================================

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Label returns the prefix used when a turn is echoed into a prompt.
func (r Role) Label() string {
	if r == RoleAssistant {
		return "Assistant"
	}
	return "User"
}

// Turn is one message of a conversation.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryStore persists conversation turns outside the process.
//
// # Description
//
// Implementations live in the history package (memory and Redis drivers).
// A Session writes through to its store on every append; store failures are
// logged and never interrupt an answer.
type HistoryStore interface {
	// Load returns the stored turns of a session, oldest first. Unknown
	// sessions return an empty slice and no error.
	Load(ctx context.Context, sessionID string) ([]Turn, error)

	// Append adds turns to the end of a session's history.
	Append(ctx context.Context, sessionID string, turns ...Turn) error

	// Delete removes a session's history.
	Delete(ctx context.Context, sessionID string) error
}

// =============================================================================
// Session
// =============================================================================

// Session owns one user's conversation history.
//
// # Description
//
// History is append-only and unbounded; the prompt builder caps how much of
// it is echoed into a prompt. The Orchestrator holds the session lock for a
// whole answer run, so concurrent questions on one session are serialized.
//
// # Thread Safety
//
// All exported methods are safe for concurrent use.
type Session struct {
	id    string
	mu    sync.Mutex
	turns []Turn
	store HistoryStore
}

// NewSession creates an empty, unpersisted session.
func NewSession(id string) *Session {
	return &Session{id: id}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Turns returns a copy of the full history.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns recorded.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Append records turns, writing through to the history store if one is set.
func (s *Session) Append(ctx context.Context, turns ...Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(ctx, turns...)
}

// Clear drops the in-memory history and the stored copy.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
	if s.store == nil {
		return nil
	}
	if err := s.store.Delete(ctx, s.id); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	return nil
}

func (s *Session) appendLocked(ctx context.Context, turns ...Turn) {
	now := time.Now().UTC()
	for i := range turns {
		if turns[i].Timestamp.IsZero() {
			turns[i].Timestamp = now
		}
	}
	s.turns = append(s.turns, turns...)
	if s.store == nil {
		return
	}
	if err := s.store.Append(ctx, s.id, turns...); err != nil {
		slog.Warn("Failed to persist conversation turns",
			"session_id", s.id,
			"error", fmt.Errorf("%w: %v", ErrPersistenceFailure, err))
	}
}

// recentLocked returns at most the last n turns. Caller holds s.mu.
func (s *Session) recentLocked(n int) []Turn {
	if n <= 0 || len(s.turns) == 0 {
		return nil
	}
	start := len(s.turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(s.turns)-start)
	copy(out, s.turns[start:])
	return out
}

// =============================================================================
// Session Registry
// =============================================================================

// SessionRegistry hands out one Session per id, hydrating new sessions from
// the history store.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	store    HistoryStore
}

// NewSessionRegistry creates a registry. store may be nil for purely
// in-process history.
func NewSessionRegistry(store HistoryStore) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		store:    store,
	}
}

// Get returns the session for id, creating it on first use.
//
// # Description
//
// A session unknown to this process is loaded from the store. A failed load
// is logged and yields an empty session; the conversation simply starts over.
func (r *SessionRegistry) Get(ctx context.Context, id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[id]; ok {
		return sess
	}
	sess := &Session{id: id, store: r.store}
	if r.store != nil {
		turns, err := r.store.Load(ctx, id)
		if err != nil {
			slog.Warn("Failed to load conversation history, starting empty",
				"session_id", id, "error", err)
		} else {
			sess.turns = turns
		}
	}
	r.sessions[id] = sess
	return sess
}

// Clear empties a session's history, in memory and in the store.
func (r *SessionRegistry) Clear(ctx context.Context, id string) error {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		return sess.Clear(ctx)
	}
	if r.store == nil {
		return nil
	}
	if err := r.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	return nil
}

// Len returns the number of sessions held in memory.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
