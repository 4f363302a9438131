package ports

import (
	"context"

	"github.com/folio/portfolio-api/internal/core/domain"
)

// ContactRepository is the authoritative, ordered list of contact submissions.
type ContactRepository interface {
	// Append stores c and returns the id it was assigned.
	Append(ctx context.Context, c domain.Contact) (int64, error)
	// List returns every record in insertion order.
	List(ctx context.Context) ([]domain.Contact, error)
	// Delete removes the first record with the given id and returns how many remain.
	Delete(ctx context.Context, id int64) (int, error)
	// DeleteAll empties the store and returns how many records were removed.
	DeleteAll(ctx context.Context) (int, error)
	// RawJSON returns the persisted document byte for byte.
	RawJSON(ctx context.Context) ([]byte, error)
}
