package ports

import (
	"context"

	"github.com/folio/portfolio-api/internal/core/domain"
)

// AdminRepository persists the singleton admin account.
type AdminRepository interface {
	// Load returns domain.ErrAdminNotFound when no account has been created yet.
	Load(ctx context.Context) (*domain.AdminCredentials, error)
	Save(ctx context.Context, creds *domain.AdminCredentials) error
}

// SessionStore tracks authenticated sessions by opaque token.
type SessionStore interface {
	Create(username, ip, userAgent string) (*domain.Session, error)
	// Validate extends the session's expiry on success. It returns
	// domain.ErrUnauthenticated for unknown tokens and domain.ErrSessionExpired
	// (after removing the entry) for stale ones.
	Validate(token string) (*domain.Session, error)
	Destroy(token string)
}
