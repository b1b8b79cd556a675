package app

import (
	"context"
	"testing"
	"time"

	"form_sheets/internal/config"
	"form_sheets/internal/records"
	"form_sheets/internal/sheets"
)

func TestLoadSettingsDefaults(t *testing.T) {
	for _, key := range []string{"LISTEN_ADDR", "FORMS_FILE", "SHEETS_BACKEND", "DATABASE_URL", "TIMEZONE", "REQUEST_TIMEOUT"} {
		t.Setenv(key, "")
	}

	settings := LoadSettings()
	if settings.ListenAddr != ":8080" || settings.FormsFile != "forms.toml" || settings.Backend != "google" {
		t.Errorf("Unexpected defaults: %+v", settings)
	}
	if settings.RequestTimeout != config.DefaultRequestTimeout {
		t.Errorf("Expected default timeout, got %v", settings.RequestTimeout)
	}
}

func TestLoadSettingsOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("SHEETS_BACKEND", "memory")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("REQUEST_TIMEOUT", "5s")

	settings := LoadSettings()
	if settings.ListenAddr != "127.0.0.1:9000" || settings.Backend != "memory" {
		t.Errorf("Unexpected settings: %+v", settings)
	}
	if settings.Location != time.UTC {
		t.Errorf("Expected UTC, got %v", settings.Location)
	}
	if settings.RequestTimeout != 5*time.Second {
		t.Errorf("Expected 5s, got %v", settings.RequestTimeout)
	}
}

func TestInitializeMemoryBackendSeedsForms(t *testing.T) {
	forms, err := config.ParseForms([]byte(`
[[forms]]
hook = "a"
spreadsheet_id = "book"
sheet_name = "Responses"

[[forms]]
hook = "b"
spreadsheet_id = "other"
`))
	if err != nil {
		t.Fatalf("Failed to parse forms: %v", err)
	}

	backend := InitializeBackend(context.Background(), Settings{Backend: "memory"}, forms)
	if _, ok := backend.(*sheets.Memory); !ok {
		t.Fatalf("Expected memory backend, got %T", backend)
	}

	ref, err := backend.ResolveSheet(context.Background(), "other", "")
	if err != nil || ref.SheetName != "Sheet1" {
		t.Errorf("Expected default tab Sheet1, got %+v (%v)", ref, err)
	}
	if _, err := backend.ResolveSheet(context.Background(), "book", "Responses"); err != nil {
		t.Errorf("Expected Responses tab, got %v", err)
	}
}

func TestInitializeRecordStoreWithoutDatabase(t *testing.T) {
	store, closeStore := InitializeRecordStore(context.Background(), Settings{})
	defer closeStore()
	if _, ok := store.(*records.Memory); !ok {
		t.Errorf("Expected memory store, got %T", store)
	}
}

func TestInitializeNotificationClientDisabled(t *testing.T) {
	t.Setenv("NTFY_ENABLED", "")
	client := InitializeNotificationClient()
	if err := client.SendNotification(context.Background(), "x"); err != nil {
		t.Errorf("Expected disabled client to skip sending, got %v", err)
	}
}
