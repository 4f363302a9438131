package ports

import (
	"context"
	"encoding/json"

	"github.com/folio/portfolio-api/internal/core/domain"
)

// SubmitContactInput is the DTO passed from the transport layer to ContactService.
type SubmitContactInput struct {
	Name      string
	Email     string
	Message   string
	Timestamp string // optional, client supplied ISO-8601
	IP        string
	UserAgent string
}

// SubmitContactResult reports the stored record and whether a notification was queued.
type SubmitContactResult struct {
	Contact   domain.Contact
	EmailSent bool
}

type ContactService interface {
	Submit(ctx context.Context, in SubmitContactInput) (*SubmitContactResult, error)
	List(ctx context.Context) ([]domain.Contact, error)
	Delete(ctx context.Context, id int64) (int, error)
	DeleteAll(ctx context.Context) (int, error)
	ExportJSON(ctx context.Context) ([]byte, error)
	ExportText(ctx context.Context) (string, error)
}

// Notifier delivers new-contact alerts out of band.
type Notifier interface {
	// Notify queues an alert and reports whether it was accepted. It never blocks
	// on delivery.
	Notify(c domain.Contact) bool
}

// ProfileResult is the profile document together with where it was served from.
type ProfileResult struct {
	Data   json.RawMessage
	Source string
}

type ProfileService interface {
	Get(ctx context.Context) (*ProfileResult, error)
}
