package main

import (
	"context"

	"form_sheets/internal/app"
	"form_sheets/internal/config"
	"form_sheets/internal/processing"
	"form_sheets/internal/server"

	"github.com/rs/zerolog/log"
)

// setup builds the HTTP server from the environment. The returned func logs
// notification totals and releases the record store.
func setup(ctx context.Context) (*server.Server, app.Settings, func()) {
	settings := app.LoadSettings()

	forms, err := config.LoadForms(settings.FormsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load forms")
	}
	for _, form := range forms.Forms() {
		log.Debug().
			Str("hook", form.Hook).
			Str("spreadsheet_id", form.SpreadsheetID).
			Str("sheet", form.SheetName).
			Str("insert", form.InsertSpecifier()).
			Msg("Configured form")
	}
	log.Info().Int("forms", len(forms.Forms())).Msg("Loaded form catalogue")

	backend := app.InitializeBackend(ctx, settings, forms)
	store, closeStore := app.InitializeRecordStore(ctx, settings)
	notifier := app.InitializeNotificationClient()

	pipeline := processing.NewPipeline(forms, backend, store, processing.Options{
		Location: settings.Location,
		Timeout:  settings.RequestTimeout,
		Notifier: notifier,
	})

	cleanup := func() {
		logNotificationMetrics(notifier)
		closeStore()
	}
	return server.NewServer(pipeline, settings.ListenAddr), settings, cleanup
}

type notificationMetrics interface {
	GetMetrics() (sent, failed, retries int64)
}

func logNotificationMetrics(m notificationMetrics) {
	sent, failed, retries := m.GetMetrics()
	log.Info().
		Int64("sent", sent).
		Int64("failed", failed).
		Int64("retries", retries).
		Msg("Notification totals")
}
