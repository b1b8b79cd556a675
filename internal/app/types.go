package app

import "time"

// Settings are the process level options read from the environment.
type Settings struct {
	ListenAddr  string
	FormsFile   string
	Backend     string // google or memory
	DatabaseURL string
	// Location is applied to row timestamps.
	Location       *time.Location
	RequestTimeout time.Duration
}
