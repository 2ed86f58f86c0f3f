package queryservice

import (
	"context"
	"log/slog"
	"time"
)

// RunJanitor sweeps the cache on a fixed interval until ctx is cancelled:
// entries idle longer than MaxIdle are removed, then oldest-first eviction
// brings the total size under CacheBudget. It runs independently of
// foreground queries; a sweep racing a foreground cache write is safe
// because entries are content-addressed and last-write-wins.
func (s *Service) RunJanitor(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()

	s.logger.Info("cache janitor started",
		slog.Duration("interval", s.opts.SweepInterval),
		slog.Duration("max_idle", s.opts.MaxIdle),
		slog.Int64("budget", s.opts.CacheBudget))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("cache janitor stopped")
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Service) sweepOnce(ctx context.Context) {
	cutoff := s.now().Add(-s.opts.MaxIdle)
	err := s.withTimeout(ctx, "cache sweep", func(opCtx context.Context) error {
		removed, err := s.backend.CacheSweep(opCtx, cutoff, s.opts.CacheBudget)
		if err == nil && removed > 0 {
			s.logger.Debug("cache sweep", slog.Int("removed", removed))
		}
		return err
	})
	if err != nil && ctx.Err() == nil {
		s.logger.Warn("cache sweep failed", slog.String("error", err.Error()))
	}
}
