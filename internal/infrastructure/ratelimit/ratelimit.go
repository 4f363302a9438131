// Package ratelimit counts requests per client key. Both stores use a fixed
// window: the first request from a key opens a window, at most max requests
// are admitted until it ends, and the next request after that opens a new
// one. The Redis-backed store lives in db/redis so that several instances
// can share their counters.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of one request against a limiter.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAfter is how long until the current window ends.
	ResetAfter time.Duration
}

// Store admits or rejects the request identified by key.
type Store interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type window struct {
	start time.Time
	count int
}

// MemoryStore keeps one fixed-window counter per key.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	max     int
	window  time.Duration
	now     func() time.Time
}

// NewMemoryStore returns a MemoryStore admitting max requests per window.
func NewMemoryStore(max int, win time.Duration) *MemoryStore {
	if max <= 0 {
		max = 1
	}
	return &MemoryStore{
		windows: make(map[string]*window),
		max:     max,
		window:  win,
		now:     time.Now,
	}
}

func (s *MemoryStore) Allow(_ context.Context, key string) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.start.Add(s.window)) {
		w = &window{start: now}
		s.windows[key] = w
	}
	w.count++

	remaining := s.max - w.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:    w.count <= s.max,
		Limit:      s.max,
		Remaining:  remaining,
		ResetAfter: w.start.Add(s.window).Sub(now),
	}, nil
}

// Len reports how many keys are currently tracked.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Sweep forgets keys whose window has ended.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, w := range s.windows {
		if !now.Before(w.start.Add(s.window)) {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

// Start runs Sweep every interval until ctx is cancelled.
func (s *MemoryStore) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}
