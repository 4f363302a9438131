package middleware

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/folio/portfolio-api/internal/core/domain"
	"github.com/folio/portfolio-api/internal/core/ports"
)

const (
	// ContextKeySession holds the *domain.Session of an authenticated request.
	ContextKeySession = "session"
	// ContextKeyToken holds the raw session token of an authenticated request.
	ContextKeyToken = "session_token"

	HeaderSessionToken = "X-Session-Token"
	DefaultLoginPath   = "/admin/login"
)

// SessionConfig configures RequireSession.
type SessionConfig struct {
	Auth       ports.AuthService
	CookieName string
	// Page switches the failure mode from a 401 JSON body to a redirect to
	// LoginPath, and additionally accepts the token from ?token=.
	Page      bool
	LoginPath string
}

type unauthorizedResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// SessionToken extracts the session token from, in order: the X-Session-Token
// header, an Authorization bearer header, the session cookie and, when
// allowQuery is set, the token query parameter.
func SessionToken(c echo.Context, cookieName string, allowQuery bool) string {
	req := c.Request()
	if t := req.Header.Get(HeaderSessionToken); t != "" {
		return t
	}
	if h := req.Header.Get(echo.HeaderAuthorization); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") && parts[1] != "" {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookieName != "" {
		if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
			return ck.Value
		}
	}
	if allowQuery {
		return c.QueryParam("token")
	}
	return ""
}

// RequireSession admits only requests carrying a live admin session. The
// session and its token are stored on the context for handlers.
func RequireSession(cfg SessionConfig) echo.MiddlewareFunc {
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Page && isStaticAsset(c.Request().URL.Path) {
				return next(c)
			}

			token := SessionToken(c, cfg.CookieName, cfg.Page)
			sess, err := cfg.Auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				return deny(c, cfg, err)
			}

			c.Set(ContextKeySession, sess)
			c.Set(ContextKeyToken, token)
			return next(c)
		}
	}
}

func deny(c echo.Context, cfg SessionConfig, err error) error {
	if cfg.Page {
		return c.Redirect(http.StatusFound, cfg.LoginPath)
	}
	msg := "Authentication required"
	if errors.Is(err, domain.ErrSessionExpired) {
		msg = "Session expired"
	}
	if !errors.Is(err, domain.ErrUnauthenticated) && !errors.Is(err, domain.ErrSessionExpired) {
		return err
	}
	return c.JSON(http.StatusUnauthorized, unauthorizedResponse{Error: msg})
}

// isStaticAsset reports whether p is a file under /admin/ that is not an HTML
// page. Scripts, styles and images of the login page load without a session.
func isStaticAsset(p string) bool {
	if !strings.HasPrefix(p, "/admin/") {
		return false
	}
	ext := path.Ext(p)
	return ext != "" && ext != ".html"
}
