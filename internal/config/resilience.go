package config

import (
	"time"

	"form_sheets/internal/retry"
)

// DefaultRequestTimeout bounds one submission end to end: every sheet call,
// the save-back reads and the record writes. Sheet calls are never retried.
const DefaultRequestTimeout = 30 * time.Second

type ResilienceConfig struct {
	Notification retry.Config
}

var DefaultResilienceConfig = ResilienceConfig{
	Notification: retry.Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Timeout:    10 * time.Second,
	},
}
