// @title        Portfolio API
// @version      1.0
// @description  Contact form, admin session and profile endpoints of the portfolio site.
// @BasePath     /
//
// @securityDefinitions.apikey  SessionToken
// @in                          header
// @name                        X-Session-Token
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/folio/portfolio-api/internal/api"
	"github.com/folio/portfolio-api/internal/api/handler"
	"github.com/folio/portfolio-api/internal/api/metrics"
	"github.com/folio/portfolio-api/internal/core/service"
	"github.com/folio/portfolio-api/internal/infrastructure/config"
	"github.com/folio/portfolio-api/internal/infrastructure/session"
	"github.com/folio/portfolio-api/internal/infrastructure/storage"
	"github.com/folio/portfolio-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "portfolio-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:             cfg.LogLevel,
		Pretty:            !cfg.IsProduction(),
		Service:           "portfolio-api",
		SuppressBootstrap: !cfg.LogBootstrapCredentials,
	})
	started := time.Now()

	// --- Storage ---
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	contacts, err := storage.NewContactRepository(cfg.ContactsPath(), logger.Component("contact-store"))
	if err != nil {
		return err
	}
	defer contacts.Close()

	// --- Sessions & auth ---
	sessions := session.NewRegistry(cfg.Session.TTL, logger.Component("sessions"))
	sessions.Start(ctx, cfg.Session.SweepInterval, func(active int) {
		metrics.ActiveSessions.Set(float64(active))
	})

	authService := service.NewAuthService(storage.NewAdminRepository(cfg.AdminPath()), sessions, log)
	if _, err := authService.EnsureAdmin(ctx, logger.Bootstrap()); err != nil {
		return err
	}

	// --- Email notifications ---
	dispatcher, closeMail := newDispatcher(cfg, log)
	defer closeMail()
	dispatcher.Start(ctx)

	// --- Rate limiting ---
	checkers := []handler.DependencyChecker{storage.NewDirChecker(cfg.Storage.DataDir)}
	limiters, err := newLimiters(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer limiters.close()
	if limiters.checker != nil {
		checkers = append(checkers, limiters.checker)
	}

	e := api.NewRouter(api.Dependencies{
		Config:         cfg,
		Log:            log,
		Contacts:       service.NewContactService(contacts, dispatcher, log),
		Auth:           authService,
		Profile:        service.NewProfileService(cfg.ProfilePath(), cfg.Storage.ProfileCacheTTL),
		GeneralLimiter: limiters.general,
		AuthLimiter:    limiters.auth,
		Checkers:       checkers,
		Started:        started,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}

	stop()
	dispatcher.Wait()
	log.Info().Msg("server stopped")
	return nil
}
