package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/folio/portfolio-api/internal/core/domain"
)

// ContactRepository stores contacts as a JSON array in a single file.
//
// Every operation, reads included, runs on one goroutine, so a
// read-modify-write sequence can never interleave with another one.
type ContactRepository struct {
	path string
	now  func() time.Time
	log  zerolog.Logger

	ops       chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// ContactOption customises a ContactRepository.
type ContactOption func(*ContactRepository)

// WithContactClock overrides the clock used to derive ids.
func WithContactClock(now func() time.Time) ContactOption {
	return func(r *ContactRepository) { r.now = now }
}

// NewContactRepository creates the backing file as "[]" when missing and starts
// the writer goroutine. Call Close to stop it.
func NewContactRepository(path string, log zerolog.Logger, opts ...ContactOption) (*ContactRepository, error) {
	r := &ContactRepository{
		path: path,
		now:  time.Now,
		log:  log.With().Str("component", "contact_store").Str("path", path).Logger(),
		ops:  make(chan func()),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := writeFileAtomic(path, []byte("[]"), 0o644); err != nil {
			return nil, fmt.Errorf("init contacts file: %w: %w", domain.ErrPersistence, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat contacts file: %w: %w", domain.ErrPersistence, err)
	}

	go r.loop()
	return r, nil
}

func (r *ContactRepository) loop() {
	for {
		select {
		case <-r.done:
			return
		case op := <-r.ops:
			op()
		}
	}
}

// Close stops the writer goroutine. Pending callers receive an error.
func (r *ContactRepository) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

var errStoreClosed = errors.New("contact store closed")

// do runs fn on the writer goroutine and waits for it to finish.
func (r *ContactRepository) do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	op := func() { errc <- fn() }

	select {
	case r.ops <- op:
	case <-r.done:
		return errStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	// Once accepted the op runs to completion; waiting on ctx here could leave
	// the caller unaware of a committed write.
	return <-errc
}

// load reads the stored list. A missing, unreadable or corrupt file yields an
// empty list; the anomaly is logged.
func (r *ContactRepository) load() []domain.Contact {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.log.Warn().Err(err).Msg("contacts file unreadable, treating as empty")
		}
		return []domain.Contact{}
	}

	var contacts []domain.Contact
	if err := json.Unmarshal(raw, &contacts); err != nil {
		r.log.Warn().Err(err).Msg("contacts file corrupt, treating as empty")
		return []domain.Contact{}
	}
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	return contacts
}

func (r *ContactRepository) save(contacts []domain.Contact) error {
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	data, err := json.MarshalIndent(contacts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode contacts: %w: %w", domain.ErrPersistence, err)
	}
	if err := writeFileAtomic(r.path, data, 0o644); err != nil {
		r.log.Error().Err(err).Msg("failed to write contacts file")
		return fmt.Errorf("write contacts: %w: %w", domain.ErrPersistence, err)
	}
	return nil
}

// nextID derives an id from the millisecond clock and keeps ids strictly
// increasing within the store.
func (r *ContactRepository) nextID(contacts []domain.Contact) int64 {
	id := r.now().UnixMilli()
	for _, c := range contacts {
		if c.ID >= id {
			id = c.ID + 1
		}
	}
	return id
}

func (r *ContactRepository) Append(ctx context.Context, c domain.Contact) (int64, error) {
	var id int64
	err := r.do(ctx, func() error {
		contacts := r.load()
		c.ID = r.nextID(contacts)
		if err := r.save(append(contacts, c)); err != nil {
			return err
		}
		id = c.ID
		return nil
	})
	return id, err
}

func (r *ContactRepository) List(ctx context.Context) ([]domain.Contact, error) {
	var out []domain.Contact
	err := r.do(ctx, func() error {
		out = r.load()
		return nil
	})
	return out, err
}

func (r *ContactRepository) Delete(ctx context.Context, id int64) (int, error) {
	var remaining int
	err := r.do(ctx, func() error {
		contacts := r.load()
		idx := -1
		for i, c := range contacts {
			if c.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return domain.ErrContactNotFound
		}
		contacts = append(contacts[:idx], contacts[idx+1:]...)
		if err := r.save(contacts); err != nil {
			return err
		}
		remaining = len(contacts)
		return nil
	})
	return remaining, err
}

func (r *ContactRepository) DeleteAll(ctx context.Context) (int, error) {
	var deleted int
	err := r.do(ctx, func() error {
		deleted = len(r.load())
		return r.save(nil)
	})
	return deleted, err
}

func (r *ContactRepository) RawJSON(ctx context.Context) ([]byte, error) {
	var raw []byte
	err := r.do(ctx, func() error {
		b, err := os.ReadFile(r.path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return domain.ErrExportNotFound
			}
			return fmt.Errorf("read contacts: %w: %w", domain.ErrPersistence, err)
		}
		raw = b
		return nil
	})
	return raw, err
}
