package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/folio/portfolio-api/internal/infrastructure/ratelimit"
)

// RateLimitStore is a fixed-window counter shared by every instance that
// points at the same Redis.
// Key format: ratelimit:<name>:<client key>
type RateLimitStore struct {
	client *redis.Client
	name   string
	max    int
	window time.Duration
}

// NewRateLimitStore returns a store admitting max requests per window. name
// separates the counters of different limiters.
func NewRateLimitStore(client *redis.Client, name string, max int, window time.Duration) *RateLimitStore {
	return &RateLimitStore{client: client, name: name, max: max, window: window}
}

func (s *RateLimitStore) Allow(ctx context.Context, key string) (ratelimit.Decision, error) {
	k := s.key(key)

	count, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return ratelimit.Decision{}, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := s.client.PExpire(ctx, k, s.window).Err(); err != nil {
			return ratelimit.Decision{}, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	ttl, err := s.client.PTTL(ctx, k).Result()
	if err != nil {
		return ratelimit.Decision{}, fmt.Errorf("rate limit ttl: %w", err)
	}
	if ttl < 0 {
		// The expiry was lost (e.g. a crash between INCR and PEXPIRE); restore it.
		if err := s.client.PExpire(ctx, k, s.window).Err(); err != nil {
			return ratelimit.Decision{}, fmt.Errorf("rate limit re-expire: %w", err)
		}
		ttl = s.window
	}

	remaining := s.max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return ratelimit.Decision{
		Allowed:    int(count) <= s.max,
		Limit:      s.max,
		Remaining:  remaining,
		ResetAfter: ttl,
	}, nil
}

func (s *RateLimitStore) key(key string) string {
	return fmt.Sprintf("ratelimit:%s:%s", s.name, key)
}
