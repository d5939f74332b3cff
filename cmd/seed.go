package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/huntboard/internal/seed"
	"github.com/okian/huntboard/pkg/logger"
)

// seedCmd loads a running service with random entries.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Submit random entries to a running service and verify the board",
	Long: `Generate random teams, submit them concurrently through POST /entries with
idempotency keys, then poll /leaderboard until every entry shows up and check
that rows are ranked fastest first.

The admin secret is read from HUNT_ADMIN_SECRET.

Example:
  HUNT_ADMIN_SECRET=... huntboard seed --url http://localhost:9080 -n 500`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	f := seedCmd.Flags()
	f.String("url", "http://localhost:9080", "base URL of the service")
	f.IntP("count", "n", 100, "number of entries to submit")
	f.Int("workers", runtime.NumCPU()*2, "number of concurrent submitters")
	f.Duration("timeout", 10*time.Second, "HTTP request timeout")
	f.Duration("settle", time.Minute, "how long to wait for the board to catch up")
	f.String("user", "admin", "basic auth user name")
	f.Bool("resubmit", false, "send every entry twice to exercise idempotency")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	if err := logger.InitConsole(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	secret := os.Getenv("HUNT_ADMIN_SECRET")
	if secret == "" {
		return errors.New("HUNT_ADMIN_SECRET is required")
	}

	f := cmd.Flags()
	cfg := &seed.Config{Secret: secret}
	cfg.BaseURL, _ = f.GetString("url")
	cfg.Count, _ = f.GetInt("count")
	cfg.Workers, _ = f.GetInt("workers")
	cfg.Timeout, _ = f.GetDuration("timeout")
	cfg.Settle, _ = f.GetDuration("settle")
	cfg.User, _ = f.GetString("user")
	cfg.Resubmit, _ = f.GetBool("resubmit")
	if cfg.Count < 1 {
		return errors.New("count must be positive")
	}

	stats, err := seed.Run(cmd.Context(), cfg)
	if stats != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "generated %d, accepted %d, duplicate %d, failed %d, board rows %d in %s\n",
			stats.Generated, stats.Accepted, stats.Duplicates, stats.Failed, stats.BoardRows, stats.Duration)
	}
	return err
}
