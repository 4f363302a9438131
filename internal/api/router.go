package api

import (
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/folio/portfolio-api/docs" // registers the swagger document
	"github.com/folio/portfolio-api/internal/api/handler"
	"github.com/folio/portfolio-api/internal/api/middleware"
	"github.com/folio/portfolio-api/internal/core/ports"
	"github.com/folio/portfolio-api/internal/infrastructure/config"
	"github.com/folio/portfolio-api/internal/infrastructure/ratelimit"
)

const bodyLimit = "1M"

// Dependencies is everything NewRouter wires into the HTTP surface.
type Dependencies struct {
	Config   *config.Config
	Log      zerolog.Logger
	Contacts ports.ContactService
	Auth     ports.AuthService
	Profile  ports.ProfileService

	// GeneralLimiter guards every route except the probes; AuthLimiter
	// additionally guards login and password change.
	GeneralLimiter ratelimit.Store
	AuthLimiter    ratelimit.Store

	Checkers []handler.DependencyChecker
	Started  time.Time
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	cfg := deps.Config
	log := deps.Log

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log, cfg.IsProduction())
	e.IPExtractor = ipExtractor(cfg, log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(log))
	e.Use(echomiddleware.SecureWithConfig(secureConfig(cfg)))
	if cors := corsConfig(cfg); cors != nil {
		e.Use(echomiddleware.CORSWithConfig(*cors))
	}
	e.Use(echomiddleware.Gzip())
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	if cfg.MetricsEnabled {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem: "http",
			Skipper:   middleware.SkipPaths("/metrics"),
		}))
	}
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Name:    "general",
		Store:   deps.GeneralLimiter,
		Skipper: middleware.SkipPaths("/health", "/health/ready", "/metrics"),
		Log:     log,
	}))
	e.Use(middleware.Sanitize(middleware.NewSanitizer()))

	// --- Dependencies ---
	authLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Name:    "auth",
		Store:   deps.AuthLimiter,
		Message: "Too many authentication attempts, please try again later.",
		Log:     log,
	})
	requireAPI := middleware.RequireSession(middleware.SessionConfig{
		Auth:       deps.Auth,
		CookieName: cfg.Session.CookieName,
	})
	requirePage := middleware.RequireSession(middleware.SessionConfig{
		Auth:       deps.Auth,
		CookieName: cfg.Session.CookieName,
		Page:       true,
	})

	contactHandler := handler.NewContactHandler(deps.Contacts)
	authHandler := handler.NewAuthHandler(deps.Auth, handler.CookieConfig{
		Name:   cfg.Session.CookieName,
		TTL:    cfg.Session.TTL,
		Secure: cfg.IsProduction(),
	})
	profileHandler := handler.NewProfileHandler(deps.Profile)
	pageHandler := handler.NewPageHandler(cfg.PublicDir)
	healthHandler := handler.NewHealthHandler(deps.Started, deps.Checkers...)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	if cfg.MetricsEnabled {
		e.GET("/metrics", echoprometheus.NewHandler())
	}
	if cfg.SwaggerEnabled {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	// --- Public API ---
	apiGroup := e.Group("/api")
	apiGroup.POST("/save-contact", contactHandler.Save)
	apiGroup.GET("/profile", profileHandler.Get)
	apiGroup.POST("/login", authHandler.Login, authLimit)
	apiGroup.POST("/logout", authHandler.Logout)

	// GET /api/contacts is public unless CONTACTS_LIST_REQUIRE_AUTH is set.
	if cfg.ContactsListRequireAuth {
		apiGroup.GET("/contacts", contactHandler.List, requireAPI)
	} else {
		apiGroup.GET("/contacts", contactHandler.List)
	}

	// --- Admin API ---
	apiGroup.DELETE("/contacts/delete-all", contactHandler.DeleteAll, requireAPI)
	apiGroup.DELETE("/contacts/:id", contactHandler.Delete, requireAPI)
	apiGroup.POST("/change-password", authHandler.ChangePassword, authLimit, requireAPI)
	apiGroup.GET("/auth-check", authHandler.AuthCheck, requireAPI)

	// --- Admin pages and downloads ---
	e.GET("/admin/login", pageHandler.Login)
	e.GET("/download-contacts", contactHandler.DownloadJSON, requirePage)

	admin := e.Group("/admin", requirePage)
	admin.GET("", redirectTo("/admin/contacts"))
	admin.GET("/contacts", pageHandler.Contacts)
	admin.GET("/contacts/download-txt", contactHandler.DownloadText)
	admin.Static("/", filepath.Join(cfg.PublicDir, "admin"))

	e.Static("/", cfg.PublicDir)

	return e
}

func redirectTo(path string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.Redirect(http.StatusFound, path)
	}
}

// ipExtractor trusts X-Forwarded-For only when the service runs behind a
// proxy. With TRUSTED_PROXIES unset echo's defaults apply (loopback, link
// local and private ranges).
func ipExtractor(cfg *config.Config, log zerolog.Logger) echo.IPExtractor {
	if !cfg.TrustProxy {
		return echo.ExtractIPDirect()
	}

	var opts []echo.TrustOption
	for _, cidr := range cfg.TrustedProxies {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			log.Warn().Str("cidr", cidr).Err(err).Msg("ignoring invalid trusted proxy range")
			continue
		}
		opts = append(opts, echo.TrustIPRange(ipnet))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

func secureConfig(cfg *config.Config) echomiddleware.SecureConfig {
	sc := echomiddleware.DefaultSecureConfig
	sc.ReferrerPolicy = "strict-origin-when-cross-origin"
	if cfg.IsProduction() {
		sc.HSTSMaxAge = 31536000
	}
	return sc
}

// corsConfig is strict in production (only CORS_ORIGINS) and permissive
// otherwise. A nil result disables the middleware.
func corsConfig(cfg *config.Config) *echomiddleware.CORSConfig {
	if len(cfg.CORSOrigins) > 0 {
		return &echomiddleware.CORSConfig{
			AllowOrigins:     cfg.CORSOrigins,
			AllowCredentials: true,
		}
	}
	if cfg.IsProduction() {
		return nil
	}
	return &echomiddleware.CORSConfig{
		AllowOriginFunc:  func(string) (bool, error) { return true, nil },
		AllowCredentials: true,
	}
}
