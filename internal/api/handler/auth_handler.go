package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/folio/portfolio-api/internal/api/metrics"
	"github.com/folio/portfolio-api/internal/api/middleware"
	"github.com/folio/portfolio-api/internal/core/domain"
	"github.com/folio/portfolio-api/internal/core/ports"
)

// CookieConfig describes the session cookie set on login.
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

type AuthHandler struct {
	authService ports.AuthService
	cookie      CookieConfig
}

func NewAuthHandler(authService ports.AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie}
}

// Login authenticates the admin and opens a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /api/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError("body", "invalid JSON payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sess, err := h.authService.Login(c.Request().Context(), ports.LoginInput{
		Username:  req.Username,
		Password:  req.Password,
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
		} else {
			metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		}
		return err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()

	c.SetCookie(h.sessionCookie(sess.ID, int(h.cookie.TTL.Seconds())))
	return c.JSON(http.StatusOK, loginResponse{
		Success:  true,
		Message:  "Login successful",
		Token:    sess.ID,
		Username: sess.Username,
	})
}

// Logout ends the current session. It succeeds even without one.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /api/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token := middleware.SessionToken(c, h.cookie.Name, false)
	h.authService.Logout(c.Request().Context(), token)

	c.SetCookie(h.sessionCookie("", -1))
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Logged out"})
}

// ChangePassword replaces the admin password.
//
// @Summary      Change the admin password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError("body", "invalid JSON payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.authService.ChangePassword(c.Request().Context(), ports.ChangePasswordInput{
		Session:         sess,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		IP:              c.RealIP(),
	}); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Current password is incorrect")
		}
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Password changed successfully"})
}

// AuthCheck reports the current session.
//
// @Summary      Check the session
// @Tags         auth
// @Produce      json
// @Security     SessionToken
// @Success      200  {object}  authCheckResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/auth-check [get]
func (h *AuthHandler) AuthCheck(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authCheckResponse{
		Success:       true,
		Authenticated: true,
		Username:      sess.Username,
		ExpiresAt:     domain.FormatTimestamp(sess.ExpiresAt),
	})
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
