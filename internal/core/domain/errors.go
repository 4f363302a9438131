package domain

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrSessionExpired     = errors.New("session expired")
	ErrSamePassword       = errors.New("new password must be different from the current password")
	ErrAdminNotFound      = errors.New("admin credentials not found")

	ErrContactNotFound = errors.New("contact not found")
	ErrExportNotFound  = errors.New("no contacts file found")
	ErrProfileNotFound = errors.New("profile not found")

	ErrRateLimited = errors.New("too many requests")

	// ErrPersistence marks a storage failure. The HTTP layer reports it as a
	// generic 500 and logs the wrapped cause.
	ErrPersistence = errors.New("persistence failure")

	// ErrCredentialsUnavailable is wrapped by every credential vault failure.
	// Callers treat it as "email disabled", never as a fatal error.
	ErrCredentialsUnavailable = errors.New("email credentials unavailable")
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field-level failure of one request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}
