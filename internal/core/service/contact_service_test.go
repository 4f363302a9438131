package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/folio/portfolio-api/internal/core/domain"
	"github.com/folio/portfolio-api/internal/core/ports"
)

type stubContactRepo struct {
	contacts  []domain.Contact
	nextID    int64
	appendErr error
}

func (r *stubContactRepo) Append(_ context.Context, c domain.Contact) (int64, error) {
	if r.appendErr != nil {
		return 0, r.appendErr
	}
	r.nextID++
	c.ID = r.nextID
	r.contacts = append(r.contacts, c)
	return c.ID, nil
}

func (r *stubContactRepo) List(_ context.Context) ([]domain.Contact, error) {
	return append([]domain.Contact(nil), r.contacts...), nil
}

func (r *stubContactRepo) Delete(_ context.Context, id int64) (int, error) {
	for i, c := range r.contacts {
		if c.ID == id {
			r.contacts = append(r.contacts[:i], r.contacts[i+1:]...)
			return len(r.contacts), nil
		}
	}
	return 0, domain.ErrContactNotFound
}

func (r *stubContactRepo) DeleteAll(_ context.Context) (int, error) {
	n := len(r.contacts)
	r.contacts = nil
	return n, nil
}

func (r *stubContactRepo) RawJSON(_ context.Context) ([]byte, error) {
	return []byte("[]"), nil
}

type stubNotifier struct {
	accept bool
	got    []domain.Contact
}

func (n *stubNotifier) Notify(c domain.Contact) bool {
	n.got = append(n.got, c)
	return n.accept
}

func newTestContactService(repo ports.ContactRepository, notifier ports.Notifier, now time.Time) ports.ContactService {
	svc := NewContactService(repo, notifier, zerolog.Nop())
	svc.(*contactService).now = func() time.Time { return now }
	return svc
}

func TestContactService_Submit_Normalizes(t *testing.T) {
	repo := &stubContactRepo{}
	notifier := &stubNotifier{accept: true}
	now := time.Date(2025, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	svc := newTestContactService(repo, notifier, now)

	res, err := svc.Submit(context.Background(), ports.SubmitContactInput{
		Name:      "  Ada Lovelace ",
		Email:     " Ada@Example.COM ",
		Message:   " Hello there, this is a message. ",
		IP:        "203.0.113.9",
		UserAgent: strings.Repeat("a", domain.MaxUserAgentLength+20),
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if !res.EmailSent {
		t.Fatalf("expected emailSent=true")
	}

	c := res.Contact
	if c.ID != 1 {
		t.Fatalf("expected id 1, got %d", c.ID)
	}
	if c.Name != "Ada Lovelace" || c.Email != "ada@example.com" || c.Message != "Hello there, this is a message." {
		t.Fatalf("fields not normalised: %+v", c)
	}
	if len(c.UserAgent) != domain.MaxUserAgentLength {
		t.Fatalf("user agent not truncated: %d", len(c.UserAgent))
	}
	if c.Timestamp != "2025-01-02T03:04:05.006Z" {
		t.Fatalf("unexpected timestamp %q", c.Timestamp)
	}
	if len(notifier.got) != 1 || notifier.got[0].ID != 1 {
		t.Fatalf("notifier did not receive the stored contact: %+v", notifier.got)
	}
}

func TestContactService_Submit_Timestamp(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc := newTestContactService(&stubContactRepo{}, nil, now)

	cases := []struct {
		raw  string
		want string
	}{
		{"2024-12-24T18:30:00.123Z", "2024-12-24T18:30:00.123Z"},
		{"2024-12-24T20:30:00+02:00", "2024-12-24T18:30:00.000Z"},
		{"yesterday", "2025-06-01T00:00:00.000Z"},
		{"", "2025-06-01T00:00:00.000Z"},
	}
	for _, tc := range cases {
		res, err := svc.Submit(context.Background(), ports.SubmitContactInput{
			Name: "Bob", Email: "bob@example.com", Message: "A long enough message", Timestamp: tc.raw,
		})
		if err != nil {
			t.Fatalf("Submit(%q): %v", tc.raw, err)
		}
		if res.Contact.Timestamp != tc.want {
			t.Fatalf("timestamp %q: expected %q, got %q", tc.raw, tc.want, res.Contact.Timestamp)
		}
		if res.EmailSent {
			t.Fatalf("expected emailSent=false without a notifier")
		}
	}
}

func TestContactService_Submit_RepoError(t *testing.T) {
	repo := &stubContactRepo{appendErr: domain.ErrPersistence}
	notifier := &stubNotifier{accept: true}
	svc := newTestContactService(repo, notifier, time.Now())

	_, err := svc.Submit(context.Background(), ports.SubmitContactInput{Name: "Bob", Email: "bob@example.com", Message: "hello world!"})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if len(notifier.got) != 0 {
		t.Fatalf("notifier must not run when the store fails")
	}
}

func TestContactService_DeleteAndExport(t *testing.T) {
	repo := &stubContactRepo{}
	svc := newTestContactService(repo, nil, time.Now())
	ctx := context.Background()

	for _, name := range []string{"Ann", "Ben", "Cy"} {
		if _, err := svc.Submit(ctx, ports.SubmitContactInput{Name: name, Email: "x@example.com", Message: "hello world!"}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	remaining, err := svc.Delete(ctx, 2)
	if err != nil || remaining != 2 {
		t.Fatalf("Delete = %d, %v", remaining, err)
	}
	if _, err := svc.Delete(ctx, 99); !errors.Is(err, domain.ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound, got %v", err)
	}

	text, err := svc.ExportText(ctx)
	if err != nil {
		t.Fatalf("ExportText: %v", err)
	}
	if blocks := strings.Split(text, domain.ContactSeparator); len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %q", len(blocks), text)
	}
	if !strings.Contains(text, "Name: Cy") || strings.Contains(text, "Name: Ben") {
		t.Fatalf("unexpected export: %q", text)
	}

	deleted, err := svc.DeleteAll(ctx)
	if err != nil || deleted != 2 {
		t.Fatalf("DeleteAll = %d, %v", deleted, err)
	}
	list, _ := svc.List(ctx)
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}
}
