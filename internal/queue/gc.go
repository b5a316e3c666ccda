package queue

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// gcRunTimeout bounds one purge pass
const gcRunTimeout = 2 * time.Minute

// GarbageCollector purges dead-lettered jobs older than retention: once at start, then every interval
type GarbageCollector struct {
	purger    DLQPurger
	interval  time.Duration
	retention time.Duration
	log       *zap.Logger
	purged    atomic.Int64
}

// NewGarbageCollector creates a collector for purger. A nil purger makes every pass a no-op.
func NewGarbageCollector(purger DLQPurger, interval, retention time.Duration, log *zap.Logger) *GarbageCollector {
	if log == nil {
		log = zap.NewNop()
	}
	return &GarbageCollector{
		purger:    purger,
		interval:  interval,
		retention: retention,
		log:       log,
	}
}

// Start runs purge passes until ctx is cancelled and returns ctx.Err()
func (gc *GarbageCollector) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	gc.runOnce(ctx)

	ticker := time.NewTicker(gc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			gc.runOnce(ctx)
		}
	}
}

// Purged returns how many jobs this collector has removed so far
func (gc *GarbageCollector) Purged() int64 {
	return gc.purged.Load()
}

func (gc *GarbageCollector) runOnce(ctx context.Context) {
	if err := gc.collect(ctx); err != nil {
		gc.log.Error("dlq_gc_failed", zap.Error(err), zap.Duration("retention", gc.retention))
	}
}

func (gc *GarbageCollector) collect(ctx context.Context) error {
	if gc.purger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, gcRunTimeout)
	defer cancel()

	n, err := gc.purger.PurgeOlderThan(ctx, gc.retention)
	if err != nil {
		return fmt.Errorf("failed to purge dead-lettered jobs: %w", err)
	}
	if n > 0 {
		gc.purged.Add(int64(n))
		gc.log.Info("dlq_gc_purged", zap.Int("purged", n), zap.Duration("retention", gc.retention))
	}
	return nil
}
