package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/folio/portfolio-api/internal/infrastructure/ratelimit"
)

type erroringStore struct{}

func (erroringStore) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("redis down")
}

func newLimitedEcho(store ratelimit.Store) *echo.Echo {
	e := echo.New()
	e.IPExtractor = echo.ExtractIPDirect()
	e.Use(RateLimit(RateLimitConfig{
		Name:    "auth",
		Store:   store,
		Message: "Too many login attempts",
		Skipper: SkipPaths("/health", "/metrics"),
		Log:     zerolog.Nop(),
	}))
	e.POST("/api/login", func(c echo.Context) error { return c.NoContent(http.StatusUnauthorized) })
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	return e
}

func doRequest(e *echo.Echo, method, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = ip + ":12345"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_SixthLoginAttemptIsRejected(t *testing.T) {
	e := newLimitedEcho(ratelimit.NewMemoryStore(5, 15*time.Minute))

	for i := 1; i <= 5; i++ {
		rec := doRequest(e, http.MethodPost, "/api/login", "10.0.0.1")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401 from handler, got %d", i, rec.Code)
		}
		if rec.Header().Get("RateLimit-Limit") != "5" {
			t.Fatalf("attempt %d: missing RateLimit-Limit header", i)
		}
	}

	rec := doRequest(e, http.MethodPost, "/api/login", "10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get(echo.HeaderRetryAfter) == "" {
		t.Fatalf("expected Retry-After header")
	}
	if rec.Header().Get("RateLimit-Remaining") != "0" {
		t.Fatalf("expected RateLimit-Remaining 0, got %q", rec.Header().Get("RateLimit-Remaining"))
	}

	// Another client is unaffected.
	if rec := doRequest(e, http.MethodPost, "/api/login", "10.0.0.2"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected other IP to pass, got %d", rec.Code)
	}
}

func TestRateLimit_SkipsHealth(t *testing.T) {
	e := newLimitedEcho(ratelimit.NewMemoryStore(1, time.Minute))

	for i := 0; i < 3; i++ {
		if rec := doRequest(e, http.MethodGet, "/health", "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("expected health to bypass limiter, got %d", rec.Code)
		}
	}
}

func TestRateLimit_StoreErrorFailsOpen(t *testing.T) {
	e := newLimitedEcho(erroringStore{})
	if rec := doRequest(e, http.MethodPost, "/api/login", "10.0.0.1"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected request to pass through, got %d", rec.Code)
	}
}

func TestRetryAfter(t *testing.T) {
	if got := retryAfter(1500 * time.Millisecond); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}
