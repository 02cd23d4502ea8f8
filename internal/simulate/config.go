// Package simulate drives a running streak service with generated check-in
// histories and verifies the streaks it reports.
package simulate

import (
	"runtime"
	"time"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL        string        // Base URL of the service
	Users          int           // Number of simulated users
	Days           int           // Days of history generated per user, ending today
	Toggles        int           // Random single-day toggles per user after the bulk edits
	Workers        int           // Number of concurrent workers
	Horizon        int           // Horizon the service is configured with
	FallbackStreak int           // Fallback streak the service reports for empty users
	Seed           int64         // Seed of the history generator
	Timeout        time.Duration // HTTP request timeout
	Location       *time.Location
	Verbose        bool
}

// DefaultConfig returns the settings used when no flags are given.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:  "http://localhost:9080",
		Users:    100,
		Days:     60,
		Toggles:  5,
		Workers:  runtime.NumCPU() * 2,
		Horizon:  365,
		Seed:     time.Now().UnixNano(),
		Timeout:  30 * time.Second,
		Location: time.UTC,
	}
}

// Stats holds run statistics.
type Stats struct {
	Users       int
	Requests    int64
	Duplicates  int64
	Failures    int64
	Verified    int
	Mismatches  int
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	MaxCurrent  int
	MaxLongest  int
	PerfectDays int
}
