package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/folio/portfolio-api/internal/core/domain"
	"github.com/folio/portfolio-api/internal/core/ports"
)

// PasswordCost is the bcrypt work factor for the admin password.
const PasswordCost = 12

// AuthService implements login, logout, password change and session checks
// for the single admin account.
type AuthService struct {
	repo     ports.AdminRepository
	sessions ports.SessionStore
	cost     int
	now      func() time.Time
	log      zerolog.Logger
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) AuthOption {
	return func(s *AuthService) { s.cost = cost }
}

// WithClock overrides the time source used for audit stamps.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(repo ports.AdminRepository, sessions ports.SessionStore, log zerolog.Logger, opts ...AuthOption) *AuthService {
	s := &AuthService{
		repo:     repo,
		sessions: sessions,
		cost:     PasswordCost,
		now:      time.Now,
		log:      log.With().Str("component", "auth").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureAdmin creates the admin account with the default credentials when
// none exists yet. It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, bootstrapLog zerolog.Logger) (bool, error) {
	_, err := s.repo.Load(ctx)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrAdminNotFound) {
		return false, fmt.Errorf("load admin credentials: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(domain.DefaultAdminPassword), s.cost)
	if err != nil {
		return false, fmt.Errorf("hash default password: %w", err)
	}

	now := s.now().UTC()
	creds := &domain.AdminCredentials{
		Username:     domain.DefaultAdminUsername,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
		UpdatedBy:    "bootstrap",
	}
	if err := s.repo.Save(ctx, creds); err != nil {
		return false, fmt.Errorf("save admin credentials: %w", err)
	}

	logBootstrapCredentials(bootstrapLog)
	return true, nil
}

// logBootstrapCredentials is the only place the default password is written to
// a log. Deployments that must not record it can drop component=bootstrap.
func logBootstrapCredentials(log zerolog.Logger) {
	log.Warn().
		Str("component", "bootstrap").
		Str("username", domain.DefaultAdminUsername).
		Str("password", domain.DefaultAdminPassword).
		Msg("created default admin account, change the password immediately")
}

func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*domain.Session, error) {
	if in.Username == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	creds, err := s.repo.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAdminNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	// The hash is compared even on a username mismatch so both failure modes
	// take the same time.
	hashErr := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(in.Password))
	if in.Username != creds.Username || hashErr != nil {
		s.log.Warn().Str("ip", in.IP).Msg("failed login attempt")
		return nil, domain.ErrInvalidCredentials
	}

	sess, err := s.sessions.Create(creds.Username, in.IP, in.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("login: create session: %w", err)
	}

	s.log.Info().Str("username", creds.Username).Str("ip", in.IP).Msg("admin logged in")
	return sess, nil
}

// Logout always succeeds, whether or not the token was still live.
func (s *AuthService) Logout(_ context.Context, token string) {
	if token == "" {
		return
	}
	s.sessions.Destroy(token)
}

func (s *AuthService) Authenticate(_ context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.sessions.Validate(token)
}

func (s *AuthService) ChangePassword(ctx context.Context, in ports.ChangePasswordInput) error {
	if in.Session == nil {
		return domain.ErrUnauthenticated
	}

	creds, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(in.CurrentPassword)) != nil {
		return domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(in.NewPassword)) == nil {
		return domain.ErrSamePassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.cost)
	if err != nil {
		return fmt.Errorf("change password: hash: %w", err)
	}

	creds.PasswordHash = string(hash)
	creds.UpdatedAt = s.now().UTC()
	creds.UpdatedBy = in.Session.Username
	creds.UpdatedFrom = in.IP

	if err := s.repo.Save(ctx, creds); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.log.Info().Str("username", creds.Username).Str("ip", in.IP).Msg("admin password changed")
	return nil
}
