// Package session keeps authenticated admin sessions in process memory.
// Sessions do not survive a restart.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/folio/portfolio-api/internal/core/domain"
)

const (
	DefaultTTL = 24 * time.Hour
	tokenBytes = 32
)

// Registry maps opaque tokens to sessions with sliding expiration.
type Registry struct {
	ttl time.Duration
	now func() time.Time
	log zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*domain.Session
}

// Option customises a Registry.
type Option func(*Registry)

// WithClock overrides the registry's time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func NewRegistry(ttl time.Duration, log zerolog.Logger, opts ...Option) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	r := &Registry{
		ttl:      ttl,
		now:      time.Now,
		log:      log.With().Str("component", "sessions").Logger(),
		sessions: make(map[string]*domain.Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (r *Registry) Create(username, ip, userAgent string) (*domain.Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	now := r.now()
	s := &domain.Session{
		ID:        token,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
		IP:        ip,
		UserAgent: userAgent,
	}

	r.mu.Lock()
	r.sessions[token] = s
	r.mu.Unlock()

	clone := *s
	return &clone, nil
}

func (r *Registry) Validate(token string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[token]
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	now := r.now()
	if s.Expired(now) {
		delete(r.sessions, token)
		return nil, domain.ErrSessionExpired
	}

	s.ExpiresAt = now.Add(r.ttl)
	clone := *s
	return &clone, nil
}

// Destroy removes the session. Unknown tokens are ignored.
func (r *Registry) Destroy(token string) {
	r.mu.Lock()
	delete(r.sessions, token)
	r.mu.Unlock()
}

// Count returns the number of tracked sessions, expired ones included until swept.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops every expired session and returns how many were removed.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for token, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, token)
			removed++
		}
	}
	return removed
}

// Start sweeps expired sessions every interval until ctx is cancelled.
// onSweep, when non-nil, receives the live session count after each pass.
func (r *Registry) Start(ctx context.Context, interval time.Duration, onSweep func(active int)) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Sweep(); n > 0 {
					r.log.Debug().Int("removed", n).Msg("expired sessions swept")
				}
				if onSweep != nil {
					onSweep(r.Count())
				}
			}
		}
	}()
}
