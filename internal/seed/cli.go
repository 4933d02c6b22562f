package seed

import (
	"context"
	"errors"
	"io"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/heartfuse/pkg/logger"
)

// Default flag values.
const (
	defaultUsers   = 20
	defaultPerUser = 15
	defaultTimeout = 30 * time.Second
	defaultSeed    = 42
	runTimeout     = 10 * time.Minute
)

// ErrVerificationFailed is returned when any request failed or any report
// did not match.
var ErrVerificationFailed = errors.New("seed verification failed")

// NewCommand returns the seed-submissions command writing its summary to out.
func NewCommand(out io.Writer) *cobra.Command {
	cfg := &Config{}
	cmd := &cobra.Command{
		Use:           "seed-submissions",
		Short:         "Post synthetic submissions and verify fused reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
			defer cancel()

			stats, err := Run(ctx, cfg, out)
			if err != nil {
				return err
			}
			if !stats.Passed() {
				return ErrVerificationFailed
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	f.IntVar(&cfg.Users, "users", defaultUsers, "Number of synthetic users")
	f.IntVar(&cfg.PerUser, "per-user", defaultPerUser, "Submissions per user")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*2, "Number of concurrent workers")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.Uint64Var(&cfg.Seed, "seed", defaultSeed, "Generator seed")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log every failed request")
	return cmd
}
