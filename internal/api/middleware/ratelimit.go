package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/folio/portfolio-api/internal/api/metrics"
	"github.com/folio/portfolio-api/internal/infrastructure/ratelimit"
)

// RateLimitConfig configures one limiter.
type RateLimitConfig struct {
	// Name labels the limiter in metrics and logs ("general", "auth").
	Name    string
	Store   ratelimit.Store
	Message string
	Skipper echomiddleware.Skipper
	Log     zerolog.Logger
}

type rateLimitResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// RateLimit rejects clients that exceed the store's quota with 429. The client
// is identified by c.RealIP(), which honours the configured IP extractor. A
// store failure lets the request through.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = echomiddleware.DefaultSkipper
	}
	if cfg.Message == "" {
		cfg.Message = "Too many requests, please try again later."
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}

			d, err := cfg.Store.Allow(c.Request().Context(), c.RealIP())
			if err != nil {
				cfg.Log.Error().Err(err).Str("limiter", cfg.Name).Msg("rate limit store failed")
				return next(c)
			}

			reset := retryAfter(d.ResetAfter)
			h := c.Response().Header()
			h.Set("RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("RateLimit-Reset", strconv.Itoa(reset))

			if !d.Allowed {
				if reset < 1 {
					reset = 1
				}
				h.Set(echo.HeaderRetryAfter, strconv.Itoa(reset))
				metrics.RateLimitedTotal.WithLabelValues(cfg.Name).Inc()
				cfg.Log.Warn().
					Str("limiter", cfg.Name).
					Str("ip", c.RealIP()).
					Str("path", c.Request().URL.Path).
					Msg("rate limit exceeded")
				return c.JSON(http.StatusTooManyRequests, rateLimitResponse{Error: cfg.Message})
			}

			return next(c)
		}
	}
}

// SkipPaths returns a Skipper matching exact request paths or prefixes ending
// in "/".
func SkipPaths(paths ...string) echomiddleware.Skipper {
	return func(c echo.Context) bool {
		p := c.Request().URL.Path
		for _, s := range paths {
			if p == s || (strings.HasSuffix(s, "/") && strings.HasPrefix(p, s)) {
				return true
			}
		}
		return false
	}
}

// retryAfter rounds up to whole seconds.
func retryAfter(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
