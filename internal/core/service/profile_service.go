package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/folio/portfolio-api/internal/core/domain"
	"github.com/folio/portfolio-api/internal/core/ports"
)

const (
	ProfileSourceCache = "cache"
	ProfileSourceFile  = "file"

	DefaultProfileTTL = 5 * time.Minute
)

// ProfileService serves the read-only profile document through a TTL cache.
type ProfileService struct {
	path string
	ttl  time.Duration
	now  func() time.Time

	mu       sync.Mutex
	cached   json.RawMessage
	cachedAt time.Time
}

func NewProfileService(path string, ttl time.Duration) *ProfileService {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	return &ProfileService{path: path, ttl: ttl, now: time.Now}
}

func (s *ProfileService) Get(_ context.Context) (*ports.ProfileResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.cached != nil && now.Sub(s.cachedAt) < s.ttl {
		return &ports.ProfileResult{Data: s.cached, Source: ProfileSourceCache}, nil
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("read profile: %w: %w", domain.ErrPersistence, err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("read profile: %w: invalid JSON in %s", domain.ErrPersistence, s.path)
	}

	s.cached = json.RawMessage(raw)
	s.cachedAt = now
	return &ports.ProfileResult{Data: s.cached, Source: ProfileSourceFile}, nil
}

// Invalidate drops the cached document so the next Get reads the file.
func (s *ProfileService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}
