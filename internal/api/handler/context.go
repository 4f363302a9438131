package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/folio/portfolio-api/internal/api/middleware"
	"github.com/folio/portfolio-api/internal/core/domain"
)

// ctxSession returns the session stored by middleware.RequireSession. A
// missing session means the route was registered without the middleware, so
// it fails closed.
func ctxSession(c echo.Context) (*domain.Session, error) {
	sess, ok := c.Get(middleware.ContextKeySession).(*domain.Session)
	if !ok || sess == nil {
		return nil, domain.ErrUnauthenticated
	}
	return sess, nil
}
