package ports

import (
	"context"

	"github.com/folio/portfolio-api/internal/core/domain"
)

// LoginInput carries credentials and the client fingerprint recorded on the session.
type LoginInput struct {
	Username  string
	Password  string
	IP        string
	UserAgent string
}

// ChangePasswordInput carries a password change request from an authenticated session.
type ChangePasswordInput struct {
	Session         *domain.Session
	CurrentPassword string
	NewPassword     string
	IP              string
}

type AuthService interface {
	Login(ctx context.Context, in LoginInput) (*domain.Session, error)
	Logout(ctx context.Context, token string)
	ChangePassword(ctx context.Context, in ChangePasswordInput) error
	Authenticate(ctx context.Context, token string) (*domain.Session, error)
}
