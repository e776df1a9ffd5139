// Package lifetimer sweeps expired entries out of a long-lived cache.
// Batch runs load a fresh cache each time and need no sweeper.
package lifetimer

import (
	"context"
	"github.com/udaytamma/AiEmailAssistant/config"
	"github.com/udaytamma/AiEmailAssistant/internal/shared/cachedtime"
	"log/slog"
	"sync"
)

// Purger is the cache surface the sweeper needs.
type Purger interface {
	PurgeExpired() int
	Len() int
}

type Lifetimer interface {
	LifetimerMetrics() (removed, scans int64)
	Close() error
}

type LifetimeWorker struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.LifetimeCfg
	cache    Purger
	clock    cachedtime.Clock
	logger   *slog.Logger
	counters *lifetimerCounters
	done     chan struct{}
}

// New starts a sweeper, or returns a NoOpLifetimer when cfg is nil.
func New(
	ctx context.Context,
	cfg *config.LifetimeCfg,
	logger *slog.Logger,
	clock cachedtime.Clock,
	cache Purger,
) Lifetimer {
	if !cfg.Enabled() {
		return &NoOpLifetimer{}
	}

	ctx, cancel := context.WithCancel(ctx)
	return (&LifetimeWorker{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		cache:    cache,
		clock:    cachedtime.Or(clock),
		logger:   logger,
		counters: newLifetimerCounters(),
		done:     make(chan struct{}),
	}).run()
}

func (w *LifetimeWorker) LifetimerMetrics() (removed, scans int64) {
	return w.counters.snapshot()
}

// Close stops the sweeper and waits for it to exit.
func (w *LifetimeWorker) Close() error {
	w.cancel()
	<-w.done
	return nil
}

func (w *LifetimeWorker) run() *LifetimeWorker {
	w.logger.Info("expiry sweeper is running", "interval", w.cfg.SweepInterval.String())

	// the ticker is created before returning so that a mock clock advanced right after New fires it
	ticker := w.clock.Ticker(w.cfg.SweepInterval)

	go func() {
		defer close(w.done)
		defer w.logger.Info("expiry sweeper is stopped")
		var wg sync.WaitGroup
		wg.Go(func() { w.sweeper(ticker) })
		wg.Wait()
	}()

	return w
}

func (w *LifetimeWorker) sweeper(ticker *cachedtime.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.counters.scans.Add(1)
			if w.cache.Len() == 0 {
				continue
			}
			if removed := w.cache.PurgeExpired(); removed > 0 {
				w.counters.removed.Add(int64(removed))
				w.logger.Info("expired entries swept", "removed", removed, "remaining", w.cache.Len())
			}
		}
	}
}
