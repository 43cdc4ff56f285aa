package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/log"
)

const (
	DefaultSweepInterval = 10 * time.Minute
)

type SweepFunc func(ctx context.Context, now time.Time) (int, error)

// Sweeper periodically drops expired rate limit counters and sessions.
type Sweeper struct {
	interval time.Duration
	targets  map[string]SweepFunc
	logger   log.Logger
}

func NewSweeper(interval time.Duration, targets map[string]SweepFunc, logger log.Logger) Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return Sweeper{
		interval: interval,
		targets:  targets,
		logger:   logger,
	}
}

func (s Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.Sweep(ctx, now)
		}
	}
}

func (s Sweeper) Sweep(ctx context.Context, now time.Time) {
	for name, sweep := range s.targets {
		removed, err := sweep(ctx, now)
		if err != nil {
			s.logger.Error(ctx, errors.WithMessagef(err, "sweep %s", name))
			continue
		}
		if removed > 0 {
			s.logger.Debug(ctx, "expired entries removed", log.String("target", name), log.Int("removed", removed))
		}
	}
}
