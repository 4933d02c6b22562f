package seed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/heartfuse/internal/domain/types"
	"github.com/okian/heartfuse/pkg/logger"
)

// Run generates the plan, submits it, verifies every user's fused report
// and writes a summary table to out.
func Run(ctx context.Context, cfg *Config, out io.Writer) (*Stats, error) {
	if cfg.Users <= 0 || cfg.PerUser <= 0 {
		return nil, fmt.Errorf("users and per-user must be positive")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	stats := &Stats{StartTime: time.Now()}
	log := logger.Named("seed")

	plan := Generate(cfg)
	stats.Generated = len(plan.Submissions)
	log.Info(ctx, "generated submissions",
		logger.Int("users", len(plan.Users)),
		logger.Int("submissions", stats.Generated),
		logger.Any("seed", cfg.Seed),
	)

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := submit(ctx, cfg, client, plan, stats); err != nil {
		return stats, err
	}
	verifyAll(ctx, cfg, client, plan, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	if err := writeSummary(out, cfg, stats); err != nil {
		return stats, fmt.Errorf("write summary: %w", err)
	}
	return stats, nil
}

// submit posts submissions concurrently. Retries are held back until their
// first attempt has been posted so the duplicate path is exercised.
func submit(ctx context.Context, cfg *Config, client *HTTPClient, plan Plan, stats *Stats) error {
	var first, retries []Submission
	for _, s := range plan.Submissions {
		if s.Retry {
			retries = append(retries, s)
		} else {
			first = append(first, s)
		}
	}

	var created, duplicate, failed, submitted int64
	post := func(batch []Submission) {
		jobs := make(chan Submission, cfg.Workers*2)
		var wg sync.WaitGroup
		for i := 0; i < cfg.Workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for s := range jobs {
					atomic.AddInt64(&submitted, 1)
					status, err := client.postJSON(ctx, client.userURL(s.UserID, "submissions"), s.Request)
					switch {
					case err == nil && status == http.StatusCreated:
						atomic.AddInt64(&created, 1)
					case err == nil && status == http.StatusOK:
						atomic.AddInt64(&duplicate, 1)
					default:
						atomic.AddInt64(&failed, 1)
						if cfg.Verbose {
							logger.Get().Warn(ctx, "submission failed",
								logger.String("id", s.Request.SubmissionID),
								logger.Int("status", status),
								logger.Any("error", err),
							)
						}
					}
				}
			}()
		}
	feed:
		for _, s := range batch {
			select {
			case <-ctx.Done():
				break feed
			case jobs <- s:
			}
		}
		close(jobs)
		wg.Wait()
	}

	post(first)
	post(retries)

	stats.Submitted = int(submitted)
	stats.Created = int(created)
	stats.Duplicate = int(duplicate)
	stats.Failed = int(failed)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("submission cancelled: %w", err)
	}
	return nil
}

// verifyAll fetches each user's fused report and compares it to a local fusion.
func verifyAll(ctx context.Context, cfg *Config, client *HTTPClient, plan Plan, stats *Stats) {
	for _, userID := range plan.Users {
		var got types.FusionReport
		if err := client.getJSON(ctx, client.userURL(userID, "fusion", "report"), &got); err != nil {
			stats.Failed++
			logger.Get().Warn(ctx, "report fetch failed", logger.String("user", userID), logger.Error(err))
			continue
		}
		stats.Reports++
		if err := Verify(plan.Records(userID), got); err != nil {
			stats.Mismatched++
			logger.Get().Warn(ctx, "report mismatch", logger.String("user", userID), logger.Error(err))
			continue
		}
		stats.Verified++
	}
}
