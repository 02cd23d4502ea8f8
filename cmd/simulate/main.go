package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/streak/internal/simulate"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	def := simulate.DefaultConfig()
	var (
		baseURL  = flag.String("url", def.BaseURL, "Base URL of the service")
		users    = flag.Int("users", def.Users, "Number of simulated users")
		days     = flag.Int("days", def.Days, "Days of history per user")
		toggles  = flag.Int("toggles", def.Toggles, "Single-day toggles per user")
		workers  = flag.Int("workers", def.Workers, "Number of concurrent workers")
		horizon  = flag.Int("horizon", def.Horizon, "Streak horizon the service uses")
		fallback = flag.Int("fallback", def.FallbackStreak, "Fallback streak the service uses")
		seed     = flag.Int64("seed", def.Seed, "Generator seed")
		timeout  = flag.Duration("timeout", def.Timeout, "HTTP request timeout")
		logFile  = flag.String("log", "", "Also write logs to this file")
		verbose  = flag.Bool("verbose", false, "Log every mismatch")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	closeLog, err := simulate.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closeLog()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &simulate.Config{
		BaseURL:        *baseURL,
		Users:          *users,
		Days:           *days,
		Toggles:        *toggles,
		Workers:        max(*workers, 1),
		Horizon:        *horizon,
		FallbackStreak: *fallback,
		Seed:           *seed,
		Timeout:        *timeout,
		Location:       def.Location,
		Verbose:        *verbose,
	}

	if _, err := simulate.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		closeLog()
		os.Exit(1)
	}
}
