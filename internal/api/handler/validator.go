package handler

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/folio/portfolio-api/internal/core/domain"
)

var (
	personNamePattern = regexp.MustCompile(`^[\p{L}\s\-'.]+$`)
	usernamePattern   = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
// Besides the built-in tags it understands personname, username and letterdigit.
func NewValidator() *echoValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("letterdigit", func(fl validator.FieldLevel) bool {
		return hasLetterAndDigit(fl.Field().String())
	})

	return &echoValidator{v: v}
}

func hasLetterAndDigit(s string) bool {
	var letter, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

// Validate satisfies the echo.Validator interface. Field failures come back as
// a *domain.ValidationError.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fields := make([]domain.FieldError, 0, len(ve))
			for _, fe := range ve {
				fields = append(fields, domain.FieldError{
					Field:   fe.Field(),
					Message: fieldError(fe),
				})
			}
			return &domain.ValidationError{Fields: fields}
		}
		return err
	}
	return nil
}

// fieldError converts a single FieldError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "personname":
		return field + " may only contain letters, spaces, hyphens, apostrophes and periods"
	case "username":
		return field + " may only contain letters, digits and underscores"
	case "letterdigit":
		return field + " must contain at least one letter and one digit"
	case "nefield":
		return field + " must be different from the current password"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
