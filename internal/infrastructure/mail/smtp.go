// Package mail sends notification email over a small pool of SMTP
// connections.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"
	"golang.org/x/time/rate"

	"github.com/folio/portfolio-api/internal/core/domain"
)

const (
	defaultMaxConnections = 5
	defaultRatePerSecond  = 5
	defaultPort           = 587
)

// Message is a single outbound email.
type Message struct {
	To      string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a message or returns why it could not.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config describes the SMTP account and pool limits.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	FromName string

	MaxConnections int
	RatePerSecond  int
	ConnectTimeout time.Duration
	GreetTimeout   time.Duration
	SocketTimeout  time.Duration
}

// serviceHosts maps well-known provider names to their submission hosts.
var serviceHosts = map[string]string{
	"gmail":     "smtp.gmail.com",
	"outlook":   "smtp.office365.com",
	"hotmail":   "smtp.office365.com",
	"office365": "smtp.office365.com",
	"yahoo":     "smtp.mail.yahoo.com",
	"zoho":      "smtp.zoho.com",
}

// ResolveHost returns the SMTP host for a provider name. Unknown names are
// assumed to be host names already.
func ResolveHost(service string) string {
	if h, ok := serviceHosts[strings.ToLower(strings.TrimSpace(service))]; ok {
		return h
	}
	return service
}

// ConfigFromCredentials fills the account part of base from vault credentials.
// An explicit base.Host wins over the provider mapping.
func ConfigFromCredentials(base Config, creds domain.MailCredentials) Config {
	base.Username = creds.User
	base.Password = creds.Password
	if base.Host == "" {
		base.Host = ResolveHost(creds.Service)
	}
	return base
}

// conn is one established SMTP session.
type conn interface {
	Send(msgs ...*gomail.Msg) error
	Close() error
}

type dialFunc func(ctx context.Context) (conn, error)

// Pool reuses up to MaxConnections SMTP sessions and caps throughput at
// RatePerSecond messages.
type Pool struct {
	cfg     Config
	idle    chan conn
	slots   chan struct{}
	limiter *rate.Limiter
	dial    dialFunc
	log     zerolog.Logger
}

func NewPool(cfg Config, log zerolog.Logger) (*Pool, error) {
	if cfg.Host == "" || cfg.Username == "" {
		return nil, errors.New("mail: host and username are required")
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultPort
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = defaultMaxConnections
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = defaultRatePerSecond
	}

	p := &Pool{
		cfg:     cfg,
		idle:    make(chan conn, cfg.MaxConnections),
		slots:   make(chan struct{}, cfg.MaxConnections),
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RatePerSecond),
		log:     log.With().Str("component", "smtp").Str("host", cfg.Host).Logger(),
	}
	p.dial = p.dialSMTP
	return p, nil
}

func (p *Pool) dialSMTP(ctx context.Context) (conn, error) {
	opts := []gomail.Option{
		gomail.WithPort(p.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(p.cfg.Username),
		gomail.WithPassword(p.cfg.Password),
		gomail.WithTLSPortPolicy(gomail.TLSMandatory),
	}
	if p.cfg.ConnectTimeout > 0 {
		opts = append(opts, gomail.WithTimeout(p.cfg.ConnectTimeout))
	}
	client, err := gomail.NewClient(p.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: new client: %w", err)
	}

	// The dial context covers TCP connect plus the server greeting and auth.
	if d := p.cfg.ConnectTimeout + p.cfg.GreetTimeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	if err := client.DialWithContext(ctx); err != nil {
		return nil, fmt.Errorf("mail: dial %s: %w", p.cfg.Host, err)
	}
	return client, nil
}

// acquire returns an idle connection or dials a new one once a slot is free.
func (p *Pool) acquire(ctx context.Context) (conn, error) {
	select {
	case c := <-p.idle:
		return c, nil
	default:
	}

	select {
	case c := <-p.idle:
		return c, nil
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	c, err := p.dial(ctx)
	if err != nil {
		<-p.slots
		return nil, err
	}
	return c, nil
}

func (p *Pool) release(c conn) {
	select {
	case p.idle <- c:
	default:
		p.discard(c)
	}
}

func (p *Pool) discard(c conn) {
	if err := c.Close(); err != nil {
		p.log.Debug().Err(err).Msg("closing smtp connection")
	}
	select {
	case <-p.slots:
	default:
	}
}

func (p *Pool) buildMsg(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.FromFormat(p.cfg.FromName, p.cfg.Username); err != nil {
		return nil, fmt.Errorf("mail: from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("mail: to: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("mail: reply-to: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	}
	return m, nil
}

// Send waits for rate budget, borrows a connection and delivers msg. A
// connection that fails or exceeds SocketTimeout is closed, not reused.
func (p *Pool) Send(ctx context.Context, msg Message) error {
	m, err := p.buildMsg(msg)
	if err != nil {
		return err
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	c, err := p.acquire(ctx)
	if err != nil {
		return err
	}

	if p.cfg.SocketTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.SocketTimeout)
		defer cancel()
	}

	errc := make(chan error, 1)
	go func() { errc <- c.Send(m) }()

	select {
	case err := <-errc:
		if err != nil {
			p.discard(c)
			return fmt.Errorf("mail: send: %w", err)
		}
		p.release(c)
		return nil
	case <-ctx.Done():
		// Closing the connection unblocks the pending Send.
		p.discard(c)
		return fmt.Errorf("mail: send: %w", ctx.Err())
	}
}

// Close closes every idle connection.
func (p *Pool) Close() {
	for {
		select {
		case c := <-p.idle:
			p.discard(c)
		default:
			return
		}
	}
}
