package telemetry

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/udaytamma/AiEmailAssistant/internal/cache"
	"github.com/udaytamma/AiEmailAssistant/internal/lifetimer"
	"github.com/udaytamma/AiEmailAssistant/internal/shared/bytes"
)

type Logger interface {
	Interval() time.Duration
	Close() error
}

// Logs periodically reports cache traffic and contents of a long-lived cache.
type Logs struct {
	ctx       context.Context
	cancel    context.CancelFunc
	logger    *slog.Logger
	cache     cache.Cacher
	lifetimer lifetimer.Lifetimer
	interval  time.Duration
}

// New starts the periodic log. A non-positive interval disables it.
func New(
	ctx context.Context,
	logger *slog.Logger,
	cache cache.Cacher,
	lifetimer lifetimer.Lifetimer,
	interval time.Duration,
) *Logs {
	ctx, cancel := context.WithCancel(ctx)
	return (&Logs{
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger,
		cache:     cache,
		lifetimer: lifetimer,
		interval:  interval,
	}).run()
}

func (l *Logs) Interval() time.Duration {
	return l.interval
}

func (l *Logs) Close() error {
	l.cancel()
	return nil
}

func (l *Logs) run() *Logs {
	if l.interval > 0 {
		go l.loop()
	}
	return l
}

func (l *Logs) loop() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	s := newSampler(l.cache, l.lifetimer)
	prev := s.snapshot()

	for {
		select {
		case <-l.ctx.Done():
			return

		case <-ticker.C:
			cur := s.snapshot()
			d := deltaSnapshot(prev, cur)
			prev = cur

			common := []any{"interval", l.interval.String()}

			l.logger.Info("cache_traffic",
				append(common,
					"hits", int64(d.hits),
					"misses", int64(d.misses),
					"writes", int64(d.writes),
					"evicted", int64(d.evicted),
					"expired", int64(d.expired),
				)...,
			)

			if d.sweeps > 0 {
				l.logger.Info("expiry_sweeper",
					append(common,
						"sweeps", int64(d.sweeps),
						"removed", int64(d.swept),
					)...,
				)
			}

			LogStats(l.logger, l.cache.Stats())
		}
	}
}

// LogStats writes one line describing the cache contents.
func LogStats(logger *slog.Logger, s cache.Stats) {
	args := []any{
		"entries", s.Entries,
		"max_size", s.MaxSize,
		"utilization", formatPercent(s.Utilization),
		"expiry", s.Expiry.String(),
		"location", s.Location,
	}
	if fi, err := os.Stat(s.Location); err == nil {
		args = append(args, "file_size", bytes.FmtMem(uint64(fi.Size())))
	}
	if s.Oldest != nil {
		args = append(args, "oldest", s.Oldest.Format(time.RFC3339))
	}
	if s.Newest != nil {
		args = append(args, "newest", s.Newest.Format(time.RFC3339))
	}
	if s.Cursor != nil {
		args = append(args, "last_fetch", s.Cursor.Format(time.RFC3339))
	}
	logger.Info("storage", args...)
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}
