package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(max int, window time.Duration) (*MemoryStore, *clock) {
	c := &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(max, window)
	s.now = c.now
	return s, c
}

func TestMemoryStore_AdmitsBurstThenRejects(t *testing.T) {
	s, _ := newTestStore(5, 15*time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d, err := s.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5, d.Limit)
		assert.Equal(t, 4-i, d.Remaining)
	}

	d, err := s.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 15*time.Minute, d.ResetAfter)
}

func TestMemoryStore_SpacedRequestsStayWithinWindowCap(t *testing.T) {
	s, c := newTestStore(5, 15*time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d, err := s.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d should be allowed", i+1)
		c.advance(170 * time.Second)
	}

	// Sixth request at +14m10s is still inside the first window.
	d, err := s.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 50*time.Second, d.ResetAfter)

	c.advance(50 * time.Second)
	d, err = s.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed, "a new window opens once the old one ends")
	assert.Equal(t, 4, d.Remaining)
}

func TestMemoryStore_SteadyTrafficAdmitsAtMostMaxPerWindow(t *testing.T) {
	s, c := newTestStore(5, 15*time.Minute)
	ctx := context.Background()

	admitted := 0
	for i := 0; i < 15; i++ {
		d, err := s.Allow(ctx, "k")
		require.NoError(t, err)
		if d.Allowed {
			admitted++
		}
		c.advance(time.Minute)
	}
	assert.Equal(t, 5, admitted)
}

func TestMemoryStore_KeysAreIndependent(t *testing.T) {
	s, _ := newTestStore(1, time.Minute)
	ctx := context.Background()

	d, _ := s.Allow(ctx, "a")
	assert.True(t, d.Allowed)
	d, _ = s.Allow(ctx, "a")
	assert.False(t, d.Allowed)

	d, _ = s.Allow(ctx, "b")
	assert.True(t, d.Allowed)
}

func TestMemoryStore_Sweep(t *testing.T) {
	s, c := newTestStore(3, time.Minute)
	ctx := context.Background()

	s.Allow(ctx, "old")
	c.advance(2 * time.Minute)
	s.Allow(ctx, "fresh")

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())
}
