package simulate

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/streak/internal/domain/edit"
	"github.com/okian/streak/internal/domain/model"
	"github.com/okian/streak/internal/domain/streak"
	"github.com/okian/streak/internal/domain/types"
	"github.com/okian/streak/pkg/logger"
)

// Run executes a full simulation: health check, edits, verification.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("simulate")
	stats := &Stats{Users: cfg.Users, StartTime: time.Now()}
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	today := model.Today(time.Now(), cfg.Location)
	plans := generatePlans(cfg, today)
	log.Info(ctx, "generated histories",
		logger.Int("users", len(plans)),
		logger.Int("days", cfg.Days),
		logger.Int("toggles", cfg.Toggles),
	)

	if err := submit(ctx, cfg, client, plans, stats); err != nil {
		return stats, err
	}

	results, err := fetch(ctx, cfg, client, plans)
	if err != nil {
		return stats, err
	}
	mismatches := verify(cfg, plans, results, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	log.Info(ctx, "simulation finished",
		logger.Int("verified", stats.Verified),
		logger.Int("mismatches", stats.Mismatches),
		logger.Int64("requests", stats.Requests),
		logger.Int64("duplicates", stats.Duplicates),
		logger.Int("maxCurrent", stats.MaxCurrent),
		logger.Int("maxLongest", stats.MaxLongest),
		logger.Duration("took", stats.Duration),
	)
	if cfg.Verbose {
		for _, m := range mismatches {
			log.Warn(ctx, "streak mismatch", logger.String("detail", m))
		}
	}
	if stats.Mismatches > 0 {
		return stats, fmt.Errorf("%d of %d users reported an unexpected streak", stats.Mismatches, stats.Verified)
	}
	return stats, nil
}

// submit applies every plan with a bounded worker pool. One user's requests
// run in order on a single worker. Each request is sent twice with the same
// idempotency key; the replay must be acknowledged as a duplicate.
func submit(ctx context.Context, cfg *Config, client *Client, plans []*plan, stats *Stats) error {
	jobs := make(chan *plan, cfg.Workers*2)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	record := func(dup bool, err error) bool {
		atomic.AddInt64(&stats.Requests, 1)
		if err != nil {
			atomic.AddInt64(&stats.Failures, 1)
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			return false
		}
		if dup {
			atomic.AddInt64(&stats.Duplicates, 1)
		}
		return true
	}

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
			bulk:
				for _, action := range sortedActions(p) {
					for _, req := range bulkRequests(action, p.Bulk[action]) {
						key := newKey()
						if !record(client.Bulk(ctx, p.User, req, key)) {
							break bulk
						}
						record(client.Bulk(ctx, p.User, req, key))
					}
				}
				for _, t := range p.Toggles {
					key := newKey()
					if !record(client.Toggle(ctx, p.User, t.Date, t.Field, key)) {
						break
					}
					record(client.Toggle(ctx, p.User, t.Date, t.Field, key))
				}
			}
		}()
	}

	for _, p := range plans {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- p:
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return fmt.Errorf("submitting edits: %w", firstErr)
	}
	if want := stats.Requests / 2; stats.Duplicates != want {
		return fmt.Errorf("expected %d duplicate acknowledgements, got %d", want, stats.Duplicates)
	}
	return nil
}

// bulkRequests splits dates into requests no larger than the service accepts.
func bulkRequests(action edit.Action, dates []model.Date) []types.BulkRequest {
	var out []types.BulkRequest
	for len(dates) > 0 {
		n := min(len(dates), edit.DefaultMaxBulkDates)
		req := types.BulkRequest{Action: action.String(), Dates: make([]string, n)}
		for i, d := range dates[:n] {
			req.Dates[i] = d.String()
		}
		out = append(out, req)
		dates = dates[n:]
	}
	return out
}

func sortedActions(p *plan) []edit.Action {
	out := make([]edit.Action, 0, len(p.Bulk))
	for a := range p.Bulk {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// fetch reads every user's streak concurrently.
func fetch(ctx context.Context, cfg *Config, client *Client, plans []*plan) ([]types.Summary, error) {
	results := make([]types.Summary, len(plans))
	sem := make(chan struct{}, cfg.Workers)
	errs := make(chan error, len(plans))
	var wg sync.WaitGroup

	for i, p := range plans {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, user string) {
			defer wg.Done()
			defer func() { <-sem }()
			sum, err := client.Streak(ctx, user)
			if err != nil {
				errs <- err
				return
			}
			results[i] = sum
		}(i, p.User)
	}
	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		return nil, fmt.Errorf("fetching streaks: %w", err)
	}
	return results, nil
}

// verify compares each reported streak with a local computation over the
// expected history, using the reference date the server reported.
func verify(cfg *Config, plans []*plan, results []types.Summary, stats *Stats) []string {
	calc := streak.NewCalculator(streak.WithHorizon(cfg.Horizon))
	var mismatches []string
	for i, p := range plans {
		history := p.history()
		want := streak.State{Current: cfg.FallbackStreak, Longest: cfg.FallbackStreak}
		if len(history) > 0 {
			want = calc.Compute(history, results[i].Date)
		}
		got := results[i]
		stats.Verified++
		stats.MaxCurrent = max(stats.MaxCurrent, got.Current)
		stats.MaxLongest = max(stats.MaxLongest, got.Longest)
		for _, l := range history {
			if l.Status() == model.StatusPerfect {
				stats.PerfectDays++
			}
		}
		if got.Current != want.Current || got.Longest != want.Longest {
			stats.Mismatches++
			mismatches = append(mismatches, fmt.Sprintf("%s: got %d/%d want %d/%d",
				p.User, got.Current, got.Longest, want.Current, want.Longest))
		}
	}
	return mismatches
}
