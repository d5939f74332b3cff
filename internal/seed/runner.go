package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/huntboard/pkg/logger"
)

const pollInterval = 250 * time.Millisecond

// Run executes a seeding run against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("seed")
	stats := &Stats{StartTime: time.Now()}
	c := newClient(cfg)

	log.Info(ctx, "starting seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("count", cfg.Count),
		logger.Int("workers", cfg.Workers),
		logger.Any("resubmit", cfg.Resubmit))

	// Step 1: service must be up and attached to a store.
	var before Board
	if err := c.get(ctx, "/leaderboard", &before); err != nil {
		return stats, fmt.Errorf("service check failed: %w", err)
	}

	// Step 2: generate.
	subs := Generate(cfg.Count, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(cfg.Count))))
	stats.Generated = len(subs)

	// Step 3: submit concurrently.
	if err := submitAll(ctx, c, cfg, subs, stats); err != nil {
		return stats, err
	}
	log.Info(ctx, "submission completed",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("failed", stats.Failed))

	// Step 4: wait for the reloads to land and verify.
	board, err := c.waitForBoard(ctx, before.Total+stats.Accepted, cfg.Settle)
	stats.BoardRows = len(board.Rows)
	stats.Duration = time.Since(stats.StartTime)
	if err != nil {
		return stats, err
	}
	if err := Verify(board.Rows); err != nil {
		return stats, err
	}
	if missing := Missing(subs, board.Rows); len(missing) > stats.Failed {
		return stats, fmt.Errorf("%w: %d submitted teams missing", ErrBoardBehind, len(missing))
	}

	log.Info(ctx, "seed run verified",
		logger.Int("rows", stats.BoardRows),
		logger.String("duration", stats.Duration.String()))
	return stats, nil
}

func submitAll(ctx context.Context, c *client, cfg *Config, subs []Submission, stats *Stats) error {
	var accepted, duplicates, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for _, s := range subs {
		g.Go(func() error {
			attempts := 1
			if cfg.Resubmit {
				attempts = 2
			}
			for range attempts {
				result, err := c.submit(gctx, s)
				if errors.Is(err, ErrAdminRejected) {
					return err
				}
				switch result {
				case resultAccepted:
					accepted.Add(1)
				case resultDuplicate:
					duplicates.Add(1)
				default:
					failed.Add(1)
				}
			}
			return nil
		})
	}
	err := g.Wait()

	stats.Accepted = int(accepted.Load())
	stats.Duplicates = int(duplicates.Load())
	stats.Failed = int(failed.Load())
	if err != nil {
		return fmt.Errorf("submission aborted: %w", err)
	}
	return nil
}
