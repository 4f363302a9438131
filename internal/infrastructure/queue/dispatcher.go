package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/folio/portfolio-api/internal/api/metrics"
	"github.com/folio/portfolio-api/internal/core/domain"
	"github.com/folio/portfolio-api/internal/infrastructure/mail"
)

const (
	defaultWorkers    = 1
	defaultBuffer     = 64
	defaultRetryDelay = 2 * time.Second
)

// CredentialSource yields the mailbox credentials, or an error when email is
// not available.
type CredentialSource interface {
	Credentials() (domain.MailCredentials, error)
}

// Options tunes a Dispatcher.
type Options struct {
	Workers    int
	Buffer     int
	Retries    uint64
	RetryDelay time.Duration
	// To overrides the recipient. Defaults to the mailbox user itself.
	To string
}

// Dispatcher sends new-contact alerts on background workers, detached from
// the request that produced the contact. Delivery failures are retried a
// bounded number of times and then logged; they never reach the submitter.
type Dispatcher struct {
	jobs    chan domain.Contact
	sender  mail.Sender
	creds   CredentialSource
	opts    Options
	log     zerolog.Logger
	wg      sync.WaitGroup
	started bool
}

// NewDispatcher returns a Dispatcher. A nil sender or credential source
// yields a disabled dispatcher whose Notify always reports false.
func NewDispatcher(sender mail.Sender, creds CredentialSource, opts Options, log zerolog.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	return &Dispatcher{
		jobs:   make(chan domain.Contact, opts.Buffer),
		sender: sender,
		creds:  creds,
		opts:   opts,
		log:    log.With().Str("component", "notifier").Logger(),
	}
}

// Enabled reports whether both a transporter and credentials are configured.
func (d *Dispatcher) Enabled() bool {
	return d.sender != nil && d.creds != nil
}

// Start launches the worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	if !d.Enabled() {
		d.log.Info().Msg("email notifications disabled")
		return
	}
	d.started = true
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.runWorker(ctx, i)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Notify queues c without blocking. It returns false when email is disabled
// or the queue is full.
func (d *Dispatcher) Notify(c domain.Contact) bool {
	if !d.Enabled() || !d.started {
		metrics.EmailNotificationsTotal.WithLabelValues("skipped").Inc()
		return false
	}
	select {
	case d.jobs <- c:
		metrics.EmailQueueDepth.Set(float64(len(d.jobs)))
		return true
	default:
		d.log.Warn().Int64("contact_id", c.ID).Msg("notification queue full, dropping alert")
		metrics.EmailNotificationsTotal.WithLabelValues("dropped").Inc()
		return false
	}
}

func (d *Dispatcher) runWorker(ctx context.Context, id int) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-d.jobs:
			metrics.EmailQueueDepth.Set(float64(len(d.jobs)))
			d.deliver(ctx, id, c)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, worker int, c domain.Contact) {
	log := d.log.With().Int64("contact_id", c.ID).Int("worker_id", worker).Logger()

	creds, err := d.creds.Credentials()
	if err != nil {
		log.Info().Err(err).Msg("email credentials unavailable, skipping notification")
		metrics.EmailNotificationsTotal.WithLabelValues("skipped").Inc()
		return
	}

	to := d.opts.To
	if to == "" {
		to = creds.User
	}
	msg := mail.ContactMessage(c, to)

	attempt := 0
	backoff := retry.WithMaxRetries(d.opts.Retries, retry.NewConstant(d.opts.RetryDelay))
	start := time.Now()
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := d.sender.Send(ctx, msg); err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("notification email failed")
			return retry.RetryableError(err)
		}
		return nil
	})
	metrics.EmailSendDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		log.Error().Err(err).Int("attempts", attempt).Msg("giving up on notification email")
		metrics.EmailNotificationsTotal.WithLabelValues("failed").Inc()
		return
	}
	log.Info().Int("attempts", attempt).Msg("notification email sent")
	metrics.EmailNotificationsTotal.WithLabelValues("sent").Inc()
}
