package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/folio/portfolio-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Success bool                `json:"success"`
	Error   string              `json:"error"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
	Path    string              `json:"path,omitempty"`
	Details string              `json:"details,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors internally; outside production the cause is
//     also returned in a details field.
//   - Renders a consistent JSON envelope: {"success": false, "error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger, production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)
		if code >= http.StatusInternalServerError && !production {
			resp.Details = err.Error()
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errorResponse{Error: "Validation failed", Errors: ve.Fields}
	}

	// Echo's own errors (bind failures, 404 from router, body limit, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code == http.StatusNotFound {
			return http.StatusNotFound, errorResponse{Error: "Not found", Path: c.Request().URL.Path}
		}
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "Invalid credentials"}
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, errorResponse{Error: "Session expired"}
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, errorResponse{Error: "Authentication required"}
	case errors.Is(err, domain.ErrSamePassword):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrContactNotFound):
		return http.StatusNotFound, errorResponse{Error: "Contact not found"}
	case errors.Is(err, domain.ErrExportNotFound):
		return http.StatusNotFound, errorResponse{Error: "No contacts file found"}
	case errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound, errorResponse{Error: "Profile not found"}
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, errorResponse{Error: "Too many requests, please try again later."}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "Internal server error"}
}
