package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/folio/portfolio-api/internal/api/handler"
	"github.com/folio/portfolio-api/internal/infrastructure/config"
	rediscli "github.com/folio/portfolio-api/internal/infrastructure/db/redis"
	"github.com/folio/portfolio-api/internal/infrastructure/mail"
	"github.com/folio/portfolio-api/internal/infrastructure/queue"
	"github.com/folio/portfolio-api/internal/infrastructure/ratelimit"
	"github.com/folio/portfolio-api/internal/infrastructure/vault"
)

const limiterSweepInterval = 5 * time.Minute

// newDispatcher builds the notification dispatcher. When the vault holds no
// usable credentials the dispatcher is disabled and submissions report
// emailSent=false.
func newDispatcher(cfg *config.Config, log zerolog.Logger) (*queue.Dispatcher, func()) {
	v := vault.New(cfg.VaultPath(), cfg.Vault.Secret, log)
	opts := queue.Options{
		Buffer:     cfg.Mail.QueueSize,
		Retries:    cfg.Mail.Retries,
		RetryDelay: cfg.Mail.RetryDelay,
		To:         cfg.Mail.To,
	}

	creds, err := v.Credentials()
	if err != nil {
		return queue.NewDispatcher(nil, v, opts, log), func() {}
	}

	pool, err := mail.NewPool(mail.ConfigFromCredentials(mail.Config{
		Host:           cfg.Mail.Host,
		Port:           cfg.Mail.Port,
		FromName:       cfg.Mail.FromName,
		MaxConnections: cfg.Mail.MaxConnections,
		RatePerSecond:  cfg.Mail.RatePerSecond,
		ConnectTimeout: cfg.Mail.ConnectTimeout,
		GreetTimeout:   cfg.Mail.GreetTimeout,
		SocketTimeout:  cfg.Mail.SocketTimeout,
	}, creds), log)
	if err != nil {
		log.Warn().Err(err).Msg("mail transporter unavailable, email notifications disabled")
		return queue.NewDispatcher(nil, v, opts, log), func() {}
	}

	log.Info().Str("service", creds.Service).Msg("email notifications enabled")
	return queue.NewDispatcher(pool, v, opts, log), pool.Close
}

type limiterSet struct {
	general ratelimit.Store
	auth    ratelimit.Store
	checker handler.DependencyChecker
	close   func()
}

// newLimiters shares counters through Redis when REDIS_ADDR is set and keeps
// them in process otherwise.
func newLimiters(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*limiterSet, error) {
	rl := cfg.RateLimit

	if cfg.Redis.Addr == "" {
		general := ratelimit.NewMemoryStore(rl.Max, rl.Window)
		auth := ratelimit.NewMemoryStore(rl.AuthMax, rl.Window)
		general.Start(ctx, limiterSweepInterval)
		auth.Start(ctx, limiterSweepInterval)
		return &limiterSet{general: general, auth: auth, close: func() {}}, nil
	}

	client, err := rediscli.Connect(ctx, rediscli.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return nil, err
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("rate limit counters shared through redis")

	return &limiterSet{
		general: rediscli.NewRateLimitStore(client, "general", rl.Max, rl.Window),
		auth:    rediscli.NewRateLimitStore(client, "auth", rl.AuthMax, rl.Window),
		checker: rediscli.NewChecker(client),
		close:   func() { _ = client.Close() },
	}, nil
}
