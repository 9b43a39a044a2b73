package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erauner12/openadr-vtn/internal/auth"
	"github.com/erauner12/openadr-vtn/internal/db"
	"github.com/erauner12/openadr-vtn/internal/db/migrations"
	"github.com/erauner12/openadr-vtn/internal/httpapi"
	"github.com/erauner12/openadr-vtn/internal/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = log.With().Str("service", "openadr-vtn").Logger()

	if env("ENV", "") == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}

	ctx := context.Background()

	pgURL := env("DATABASE_URL", "")
	if pgURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	pool, err := db.Open(ctx, pgURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema migrations")
	}

	isDevMode := env("ENV", "") == "dev"
	jwtSecret := env("JWT_HS256_SECRET", "dev-secret-change-in-production")
	if !isDevMode && jwtSecret == "dev-secret-change-in-production" {
		log.Fatal().Msg("FATAL: cannot start outside ENV=dev with the default JWT_HS256_SECRET")
	}

	jwksURL := env("JWT_JWKS_URL", "")
	jwtIssuer := env("JWT_ISSUER", "")
	if (jwksURL != "") != (jwtIssuer != "") {
		log.Fatal().Msg("FATAL: JWT_ISSUER and JWT_JWKS_URL must both be set or both be empty")
	}

	authMgr := auth.NewManager(auth.Config{
		HS256Secret: jwtSecret,
		DevMode:     isDevMode,
		JWKSURL:     jwksURL,
		Issuer:      jwtIssuer,
	})

	srv := &httpapi.Server{
		DB:              pool,
		Auth:            authMgr,
		RateLimitConfig: httpapi.DefaultRateLimitConfig,
		Programs:        store.NewProgramStore(pool),
		Events:          store.NewEventStore(pool),
		Reports:         store.NewReportStore(pool),
		Vens:            store.NewVenStore(pool),
		Resources:       store.NewResourceStore(pool),
		Users:           store.NewUserStore(pool),
	}

	httpAddr := env("HTTP_ADDR", ":8080")
	httpServer := &http.Server{
		Addr:         httpAddr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", httpAddr).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("server stopped")
}
