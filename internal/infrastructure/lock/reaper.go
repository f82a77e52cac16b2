package lock

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StaleReaper is implemented by stores that need periodic cleanup of
// abandoned lock rows. The Redis store expires keys natively and does not
// implement it.
type StaleReaper interface {
	ReapOlderThan(ctx context.Context, ttl time.Duration) (int64, error)
}

// Reaper periodically removes lock rows abandoned by crashed holders.
// On-acquire reaping already unblocks contended keys; the background sweep
// keeps uncontended keys from accumulating.
type Reaper struct {
	store    StaleReaper
	logger   *zap.Logger
	ttl      time.Duration
	interval time.Duration
}

// NewReaper creates a new lock reaper
func NewReaper(store StaleReaper, logger *zap.Logger, ttl, interval time.Duration) *Reaper {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if interval <= 0 {
		interval = ttl
	}
	return &Reaper{
		store:    store,
		logger:   logger,
		ttl:      ttl,
		interval: interval,
	}
}

// Run sweeps until the context is cancelled
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("Lock reaper started",
		zap.Duration("ttl", r.ttl),
		zap.Duration("interval", r.interval),
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Lock reaper stopped")
			return
		case <-ticker.C:
			reaped, err := r.store.ReapOlderThan(ctx, r.ttl)
			if err != nil {
				r.logger.Error("Lock reap sweep failed", zap.Error(err))
				continue
			}
			if reaped > 0 {
				r.logger.Warn("Reaped abandoned locks", zap.Int64("count", reaped))
			}
		}
	}
}
