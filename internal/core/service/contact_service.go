package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/folio/portfolio-api/internal/core/domain"
	"github.com/folio/portfolio-api/internal/core/ports"
)

type contactService struct {
	repo     ports.ContactRepository
	notifier ports.Notifier
	now      func() time.Time
	log      zerolog.Logger
}

// NewContactService returns a ContactService implementation. notifier may be nil
// when email notifications are not configured.
func NewContactService(repo ports.ContactRepository, notifier ports.Notifier, log zerolog.Logger) ports.ContactService {
	return &contactService{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
		log:      log.With().Str("component", "contacts").Logger(),
	}
}

// Submit stores a new contact and hands it to the notifier. The notifier is
// asynchronous; a failing mail server never delays or fails the submission.
func (s *contactService) Submit(ctx context.Context, in ports.SubmitContactInput) (*ports.SubmitContactResult, error) {
	c := domain.Contact{
		Name:      domain.Truncate(strings.TrimSpace(in.Name), domain.MaxNameLength),
		Email:     domain.Truncate(domain.NormalizeEmail(in.Email), domain.MaxEmailLength),
		Message:   domain.Truncate(strings.TrimSpace(in.Message), domain.MaxMessageLength),
		Timestamp: s.timestamp(in.Timestamp),
		IP:        in.IP,
		UserAgent: domain.Truncate(in.UserAgent, domain.MaxUserAgentLength),
	}

	id, err := s.repo.Append(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = id

	s.log.Info().Int64("id", id).Str("ip", c.IP).Msg("contact saved")

	sent := false
	if s.notifier != nil {
		sent = s.notifier.Notify(c)
	}
	return &ports.SubmitContactResult{Contact: c, EmailSent: sent}, nil
}

// timestamp keeps a well-formed client timestamp and otherwise stamps now.
func (s *contactService) timestamp(raw string) string {
	if raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return domain.FormatTimestamp(t)
		}
	}
	return domain.FormatTimestamp(s.now())
}

func (s *contactService) List(ctx context.Context) ([]domain.Contact, error) {
	return s.repo.List(ctx)
}

func (s *contactService) Delete(ctx context.Context, id int64) (int, error) {
	remaining, err := s.repo.Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	s.log.Info().Int64("id", id).Int("remaining", remaining).Msg("contact deleted")
	return remaining, nil
}

func (s *contactService) DeleteAll(ctx context.Context) (int, error) {
	deleted, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.log.Info().Int("deleted", deleted).Msg("all contacts deleted")
	return deleted, nil
}

func (s *contactService) ExportJSON(ctx context.Context) ([]byte, error) {
	return s.repo.RawJSON(ctx)
}

func (s *contactService) ExportText(ctx context.Context) (string, error) {
	contacts, err := s.repo.List(ctx)
	if err != nil {
		return "", err
	}
	return domain.FormatContactsText(contacts), nil
}
