package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"form_sheets/internal/app"

	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 15 * time.Second

func main() {
	app.SetupEnvironment()
	log.Debug().Msg("Starting application")

	ctx := context.Background()
	srv, settings, cleanup := setup(ctx)
	defer cleanup()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		log.Info().Str("signal", sig.String()).Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
	}()

	log.Info().Str("addr", settings.ListenAddr).Msg("Form sheets service ready")
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Server stopped")
		cleanup()
		os.Exit(1)
	}
	log.Info().Msg("Server stopped")
}
