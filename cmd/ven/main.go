// Command ven is a minimal VEN-side demo: it polls one named program on a
// VTN and logs the enforced import-capacity limit on every update the loop
// emits.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erauner12/openadr-vtn/internal/client"
	"github.com/erauner12/openadr-vtn/internal/updateloop"
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
	log.Logger = log.With().Str("service", "openadr-ven").Logger()

	baseURL := env("VTN_URL", "http://localhost:8080")
	programName := env("VTN_PROGRAM_NAME", "")
	clientID := env("VTN_CLIENT_ID", "")
	clientSecret := env("VTN_CLIENT_SECRET", "")
	if programName == "" || clientID == "" || clientSecret == "" {
		log.Fatal().Msg("VTN_PROGRAM_NAME, VTN_CLIENT_ID and VTN_CLIENT_SECRET are required")
	}

	c := client.New(baseURL, client.ClientCredentials{ClientID: clientID, ClientSecret: clientSecret})
	source := &updateloop.ClientSource{Client: c, ProgramName: programName}
	loop := updateloop.New(programName, source, updateloop.RealClock{}, 30*time.Second)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		for limits := range loop.Updates {
			log.Info().
				Float64("total_power_w", limits.LimitsRootSide.TotalPowerW).
				Time("valid_until", limits.ValidUntil).
				Int("schedule_len", len(limits.Schedule)).
				Msg("enforced limits updated")
		}
	}()

	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("update loop exited")
	}
	log.Info().Msg("ven shut down")
}
