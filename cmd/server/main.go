// Command server runs the bulk-messaging HTTP API: provider-routed SMS and
// email dispatch, the prepaid wallet ledger, and Paystack reconciliation
// endpoints.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bulkwave/internal/config"
	"bulkwave/internal/gateway"
	httpapi "bulkwave/internal/http"
	"bulkwave/internal/observability"
	"bulkwave/internal/providers"
	"bulkwave/internal/repo"
	"bulkwave/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Optional .env for local development; real deployments use the process
	// environment.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	if err := repo.SeedAppSetting(ctx, db, cfg.Currency); err != nil {
		log.Fatal().Err(err).Msg("app settings seed failed")
	}

	deps := buildDeps(cfg)

	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfg, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
}

// buildDeps constructs the external collaborators from configuration. Missing
// credentials disable the corresponding feature rather than aborting startup:
// sends and funding then fail with a configuration error instead of a panic.
func buildDeps(cfg config.Config) httpapi.Deps {
	deps := httpapi.Deps{Transports: providers.Registry{}}

	if at, err := providers.NewAfricasTalking(cfg.AfricasTalking); err == nil {
		deps.Transports[providers.ProviderAfricasTalking] = at
	} else if cfg.AfricasTalking.APIKey != "" || cfg.AfricasTalking.Username != "" {
		log.Warn().Err(err).Msg("africastalking transport disabled")
	}
	if tw, err := providers.NewTwilio(cfg.Twilio); err == nil {
		deps.Transports[providers.ProviderTwilio] = tw
	} else if cfg.Twilio.AccountSID != "" || cfg.Twilio.AuthToken != "" {
		log.Warn().Err(err).Msg("twilio transport disabled")
	}
	if !cfg.HasSMSProviders() {
		log.Warn().Msg("no SMS provider configured; SMS sends will be rejected")
	}

	if m, err := providers.NewSMTPMailer(cfg.SMTP); err == nil {
		deps.Mailer = m
	} else {
		log.Warn().Err(err).Msg("smtp mailer disabled")
	}

	if ps, err := gateway.NewPaystack(cfg.Paystack); err == nil {
		deps.Gateway = ps
	} else {
		log.Warn().Err(err).Msg("paystack gateway disabled; wallet funding unavailable")
	}

	return deps
}
