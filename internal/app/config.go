package app

import (
	"context"
	"encoding/base64"
	"os"
	"strings"
	"time"

	"form_sheets/internal/config"
	"form_sheets/internal/notifications"
	"form_sheets/internal/records"
	"form_sheets/internal/sheets"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupEnvironment loads .env file and configures zerolog output and log level.
func SetupEnvironment() {
	// Load .env file if it exists
	err := godotenv.Load()

	if os.Getenv("ENV") == "production" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	levelStr := strings.ToLower(os.Getenv("LOGLEVEL"))
	switch levelStr {
	case "":
		if os.Getenv("ENV") == "production" {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	case "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	default:
		level, parseErr := zerolog.ParseLevel(levelStr)
		if parseErr != nil {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			log.Warn().Msgf("Unknown LOGLEVEL '%s', defaulting to info.", levelStr)
			break
		}
		zerolog.SetGlobalLevel(level)
	}

	// wait until now to report on the .env file so we have the chance to set up logging first
	if err == nil {
		log.Debug().Msg("Loaded environment variables from .env file.")
	} else {
		log.Debug().Msg("No .env file found or error loading .env file; proceeding with existing environment variables.")
	}
}

// GetRequiredEnv fetches a required environment variable or exits if not set.
func GetRequiredEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatal().Msgf("%s environment variable is required", key)
	}
	return value
}

// GetEnvWithDefault fetches an environment variable with a default fallback.
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadSettings reads the process settings from the environment.
func LoadSettings() Settings {
	settings := Settings{
		ListenAddr:     GetEnvWithDefault("LISTEN_ADDR", ":8080"),
		FormsFile:      GetEnvWithDefault("FORMS_FILE", "forms.toml"),
		Backend:        GetEnvWithDefault("SHEETS_BACKEND", "google"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		Location:       time.Local,
		RequestTimeout: config.DefaultRequestTimeout,
	}

	if tz := os.Getenv("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			log.Fatal().Err(err).Str("timezone", tz).Msg("Invalid TIMEZONE")
		}
		settings.Location = loc
	}

	if raw := os.Getenv("REQUEST_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil || timeout <= 0 {
			log.Fatal().Str("request_timeout", raw).Msg("REQUEST_TIMEOUT must be a positive duration")
		}
		settings.RequestTimeout = timeout
	}

	log.Debug().
		Str("listen_addr", settings.ListenAddr).
		Str("forms_file", settings.FormsFile).
		Str("backend", settings.Backend).
		Str("timezone", settings.Location.String()).
		Dur("request_timeout", settings.RequestTimeout).
		Msg("Loaded settings")
	return settings
}

// InitializeBackend creates the spreadsheet backend named by settings.Backend.
// The Google backend reads a base64 service account from
// GOOGLE_SERVICE_ACCOUNT, or a credentials file otherwise. The memory backend
// starts with an empty sheet for every configured form.
func InitializeBackend(ctx context.Context, settings Settings, forms *config.Catalogue) sheets.Backend {
	log.Debug().Str("backend", settings.Backend).Msg("Initializing sheets backend")

	switch settings.Backend {
	case "memory":
		log.Warn().Msg("Using in-memory sheets backend; rows are lost on exit")
		mem := sheets.NewMemory()
		for _, form := range forms.Forms() {
			if form.SpreadsheetID == "" {
				continue
			}
			name := form.SheetName
			if name == "" {
				name = "Sheet1"
			}
			mem.AddSheet(form.SpreadsheetID, name, nil)
		}
		return mem
	case "google":
	default:
		log.Fatal().Str("backend", settings.Backend).Msg("SHEETS_BACKEND must be google or memory")
	}

	if encoded := os.Getenv("GOOGLE_SERVICE_ACCOUNT"); encoded != "" {
		credentials, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
		if err != nil {
			log.Fatal().Err(err).Msg("GOOGLE_SERVICE_ACCOUNT is not valid base64")
		}
		client, err := sheets.NewClientFromJSON(ctx, credentials)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create sheets client")
		}
		return client
	}

	credsFile := GetEnvWithDefault("GOOGLE_CREDENTIALS_FILE", "credentials.json")
	client, err := sheets.NewClient(ctx, credsFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", credsFile).Msg("Failed to create sheets client")
	}
	log.Debug().Msg("Sheets client initialized successfully")
	return client
}

// InitializeRecordStore connects to PostgreSQL when DATABASE_URL is set and
// falls back to an in-memory store otherwise. The returned func releases it.
func InitializeRecordStore(ctx context.Context, settings Settings) (records.Store, func()) {
	if settings.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set; saved fields are kept in memory")
		return records.NewMemory(), func() {}
	}

	store, err := records.NewPostgres(ctx, settings.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to record database")
	}
	log.Info().Msg("Connected to record database")
	return store, store.Close
}

// InitializeNotificationClient creates and returns the notification client
func InitializeNotificationClient() *notifications.Client {
	enabled := GetEnvWithDefault("NTFY_ENABLED", "false") == "true"
	baseURL := GetEnvWithDefault("NTFY_URL", "https://ntfy.sh")
	topic := GetEnvWithDefault("NTFY_TOPIC", "form-sheets")
	priority := os.Getenv("NTFY_PRIORITY")

	log.Debug().
		Bool("enabled", enabled).
		Str("base_url", baseURL).
		Str("topic", topic).
		Msg("Initializing notification client")

	client := notifications.NewClient(baseURL, topic, enabled, priority, config.DefaultResilienceConfig.Notification)

	if enabled {
		log.Info().Str("topic", topic).Msg("Notifications enabled")
	} else {
		log.Debug().Msg("Notifications disabled")
	}

	return client
}
