package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/folio/portfolio-api/internal/core/ports"
)

type ProfileHandler struct {
	service ports.ProfileService
}

func NewProfileHandler(service ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Get serves the portfolio profile document.
//
// @Summary      Get the profile document
// @Tags         profile
// @Produce      json
// @Success      200  {object}  profileResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/profile [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	res, err := h.service.Get(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profileResponse{
		Success: true,
		Source:  res.Source,
		Data:    res.Data,
	})
}
