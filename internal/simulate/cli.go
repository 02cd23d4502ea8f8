package simulate

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/streak/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging initializes the global logger. When logFile is set, output
// goes to both stdout and the file.
func SetupLogging(logFile string, verbose bool) (func(), error) {
	var (
		out     io.Writer = os.Stdout
		closeFn           = func() {}
	)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, f)
		closeFn = func() { _ = f.Close() }
	}
	if err := logger.Init(logger.WithOutput(out)); err != nil {
		closeFn()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	if logFile != "" {
		logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	}
	return closeFn, nil
}

// ShowHelp prints usage information for the simulation tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Streak Simulation Tool
======================

Generates check-in histories for random users, submits them through the
bulk and toggle endpoints, and verifies every reported streak.

Usage:
  go run ./cmd/simulate [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -users int         Number of simulated users (default 100)
  -days int          Days of history per user (default 60)
  -toggles int       Single-day toggles per user (default 5)
  -workers int       Number of concurrent workers (default CPU cores * 2)
  -horizon int       Streak horizon the service uses (default 365)
  -fallback int      Fallback streak the service uses (default 0)
  -seed int          Generator seed (default: current time)
  -timeout duration  HTTP request timeout (default 30s)
  -log string        Also write logs to this file
  -verbose           Log every mismatch
  -help              Show this help message
`)
}
