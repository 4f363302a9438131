package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/folio/portfolio-api/internal/api/metrics"
	"github.com/folio/portfolio-api/internal/core/domain"
	"github.com/folio/portfolio-api/internal/core/ports"
)

// ContactHandler handles the contact form and the admin contact operations.
type ContactHandler struct {
	service ports.ContactService
}

func NewContactHandler(service ports.ContactService) *ContactHandler {
	return &ContactHandler{service: service}
}

// Save handles POST /api/save-contact.
//
// @Summary      Submit the contact form
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Param        body  body      saveContactRequest  true  "Contact form"
// @Success      200   {object}  saveContactResponse
// @Failure      400   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/save-contact [post]
func (h *ContactHandler) Save(c echo.Context) error {
	var req saveContactRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError("body", "invalid JSON payload")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = domain.NormalizeEmail(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.service.Submit(c.Request().Context(), ports.SubmitContactInput{
		Name:      req.Name,
		Email:     req.Email,
		Message:   req.Message,
		Timestamp: req.Timestamp,
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return err
	}
	metrics.ContactsSubmittedTotal.Inc()

	return c.JSON(http.StatusOK, saveContactResponse{
		Success:   true,
		Message:   "Thank you! Your message has been received.",
		ID:        result.Contact.ID,
		EmailSent: result.EmailSent,
	})
}

// List handles GET /api/contacts.
//
// @Summary      List every stored contact
// @Tags         contacts
// @Produce      json
// @Success      200  {array}   domain.Contact
// @Failure      500  {object}  errorResponse
// @Router       /api/contacts [get]
func (h *ContactHandler) List(c echo.Context) error {
	contacts, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	return c.JSON(http.StatusOK, contacts)
}

// Delete handles DELETE /api/contacts/:id.
//
// @Summary      Delete one contact
// @Tags         contacts
// @Produce      json
// @Security     SessionToken
// @Param        id   path      int  true  "Contact id"
// @Success      200  {object}  deleteContactResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/contacts/{id} [delete]
func (h *ContactHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return domain.NewValidationError("id", "id must be an integer")
	}

	remaining, err := h.service.Delete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	metrics.ContactsDeletedTotal.Inc()

	return c.JSON(http.StatusOK, deleteContactResponse{
		Success:   true,
		Message:   "Contact deleted",
		Remaining: remaining,
	})
}

// DeleteAll handles DELETE /api/contacts/delete-all.
//
// @Summary      Delete every contact
// @Tags         contacts
// @Produce      json
// @Security     SessionToken
// @Success      200  {object}  deleteAllResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/contacts/delete-all [delete]
func (h *ContactHandler) DeleteAll(c echo.Context) error {
	deleted, err := h.service.DeleteAll(c.Request().Context())
	if err != nil {
		return err
	}
	metrics.ContactsDeletedTotal.Add(float64(deleted))

	return c.JSON(http.StatusOK, deleteAllResponse{
		Success: true,
		Message: fmt.Sprintf("Deleted %d contacts", deleted),
		Deleted: deleted,
	})
}

// DownloadJSON handles GET /download-contacts.
//
// @Summary      Download the raw contacts file
// @Tags         contacts
// @Produce      json
// @Security     SessionToken
// @Success      200  {file}    file
// @Failure      404  {object}  errorResponse
// @Router       /download-contacts [get]
func (h *ContactHandler) DownloadJSON(c echo.Context) error {
	raw, err := h.service.ExportJSON(c.Request().Context())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="contacts.json"`)
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, raw)
}

// DownloadText handles GET /admin/contacts/download-txt.
//
// @Summary      Download contacts as plain text
// @Tags         contacts
// @Produce      plain
// @Security     SessionToken
// @Success      200  {string}  string
// @Router       /admin/contacts/download-txt [get]
func (h *ContactHandler) DownloadText(c echo.Context) error {
	text, err := h.service.ExportText(c.Request().Context())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="contacts.txt"`)
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, []byte(text))
}
