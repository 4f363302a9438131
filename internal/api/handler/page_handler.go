package handler

import (
	"path/filepath"

	"github.com/labstack/echo/v4"
)

// PageHandler serves the admin HTML pages from the public directory.
type PageHandler struct {
	publicDir string
}

func NewPageHandler(publicDir string) *PageHandler {
	return &PageHandler{publicDir: publicDir}
}

// Login serves the login page. It needs no session.
func (h *PageHandler) Login(c echo.Context) error {
	return c.File(filepath.Join(h.publicDir, "admin", "login.html"))
}

// Contacts serves the contact dashboard. The route is gated by
// RequireSession in page mode.
func (h *PageHandler) Contacts(c echo.Context) error {
	return c.File(filepath.Join(h.publicDir, "admin", "contacts.html"))
}
