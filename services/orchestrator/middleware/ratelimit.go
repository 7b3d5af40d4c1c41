// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides gin middleware for the FarminAI API.
//
// # Rate Limiting Flow
//
// Every ask request costs one token from the client's bucket, keyed by
// client IP, and one from its session's bucket when an X-Session-ID header
// is sent. Each question can mean several model calls, so the limiter keeps
// one chatty client from starving the single inference backend. Session ids
// are chosen by the client, so the per-IP bucket is the real cap; rotating
// session ids only spends the client budget faster. A session id sent only
// in the JSON body is not seen here and counts against the client budget
// alone.
//
//	Request
//	   │
//	   ▼
//	RateLimit
//	   │
//	   ├─► reserve ip:<client IP>  (+ session:<X-Session-ID> if present)
//	   │        │
//	   │        └─► either must wait: cancel both, 429 + Retry-After
//	   │
//	   ▼
//	Handler
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// SessionHeader is read to key the limiter.
const SessionHeader = "X-Session-ID"

// RateLimitConfig configures a SessionLimiter.
type RateLimitConfig struct {
	// PerMinute is the sustained request rate per key. Default: 20
	PerMinute float64 `yaml:"per_minute"`

	// Burst is the bucket size. Default: 5
	Burst int `yaml:"burst"`

	// ClientPerMinute is the sustained rate per client IP across all of its
	// sessions. Default: 60
	ClientPerMinute float64 `yaml:"client_per_minute"`

	// ClientBurst is the per-client bucket size. Default: 15
	ClientBurst int `yaml:"client_burst"`

	// IdleTTL evicts buckets unused for this long. Default: 30m
	IdleTTL time.Duration `yaml:"idle_ttl"`
}

// DefaultRateLimitConfig returns the limits the server ships with.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		PerMinute:       20,
		Burst:           5,
		ClientPerMinute: 60,
		ClientBurst:     15,
		IdleTTL:         30 * time.Minute,
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SessionLimiter holds one token bucket per session and one per client.
//
// # Thread Safety
//
// Safe for concurrent use.
type SessionLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	climit  rate.Limit
	cburst  int
	idleTTL time.Duration
	now     func() time.Time
	sweepAt time.Time
}

// NewSessionLimiter creates a limiter. Zero or negative fields take their
// defaults.
func NewSessionLimiter(cfg RateLimitConfig) *SessionLimiter {
	def := DefaultRateLimitConfig()
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = def.PerMinute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.ClientPerMinute <= 0 {
		cfg.ClientPerMinute = def.ClientPerMinute
	}
	if cfg.ClientBurst <= 0 {
		cfg.ClientBurst = def.ClientBurst
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = def.IdleTTL
	}
	return &SessionLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(cfg.PerMinute / 60),
		burst:   cfg.Burst,
		climit:  rate.Limit(cfg.ClientPerMinute / 60),
		cburst:  cfg.ClientBurst,
		idleTTL: cfg.IdleTTL,
		now:     time.Now,
	}
}

// Reserve takes a token from the session bucket for key. It returns 0 when
// the request may proceed, otherwise how long the caller should wait before
// retrying.
func (l *SessionLimiter) Reserve(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)
	return l.reserveLocked(now, bucketSpec{"session:" + key, l.limit, l.burst})
}

// ReserveRequest takes a token from the client bucket and, when session is
// not empty, from the session bucket. Both are taken or neither is.
func (l *SessionLimiter) ReserveRequest(clientIP, session string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)

	specs := []bucketSpec{{"ip:" + clientIP, l.climit, l.cburst}}
	if session != "" {
		specs = append(specs, bucketSpec{"session:" + session, l.limit, l.burst})
	}
	return l.reserveLocked(now, specs...)
}

type bucketSpec struct {
	key   string
	limit rate.Limit
	burst int
}

// reserveLocked reserves one token in every bucket. If any bucket would
// make the caller wait, all reservations are cancelled and the longest wait
// is returned.
func (l *SessionLimiter) reserveLocked(now time.Time, specs ...bucketSpec) time.Duration {
	reservations := make([]*rate.Reservation, 0, len(specs))
	var wait time.Duration
	for _, spec := range specs {
		b, ok := l.buckets[spec.key]
		if !ok {
			b = &bucket{limiter: rate.NewLimiter(spec.limit, spec.burst)}
			l.buckets[spec.key] = b
		}
		b.lastSeen = now

		r := b.limiter.ReserveN(now, 1)
		if !r.OK() {
			wait = max(wait, l.idleTTL)
			continue
		}
		reservations = append(reservations, r)
		wait = max(wait, r.DelayFrom(now))
	}
	if wait > 0 {
		for _, r := range reservations {
			r.CancelAt(now)
		}
	}
	return wait
}

// Allow reports whether a request for key may proceed now.
func (l *SessionLimiter) Allow(key string) bool {
	return l.Reserve(key) == 0
}

// Len returns the number of live buckets.
func (l *SessionLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// sweepLocked drops idle buckets at most once per idleTTL.
func (l *SessionLimiter) sweepLocked(now time.Time) {
	if now.Before(l.sweepAt) {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.buckets, key)
		}
	}
	l.sweepAt = now.Add(l.idleTTL)
}

// RateLimit rejects requests over the per-client or per-session budget
// with 429.
func RateLimit(l *SessionLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := strings.TrimSpace(c.GetHeader(SessionHeader))
		if wait := l.ReserveRequest(c.ClientIP(), session); wait > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, slow down"})
			return
		}
		c.Next()
	}
}
