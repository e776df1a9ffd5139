// Package scheduler triggers the daily run in serve mode.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/udaytamma/AiEmailAssistant/config"
)

type Scheduler struct {
	mu       sync.Mutex
	cron     *cron.Cron
	entryID  cron.EntryID
	location *time.Location
	logger   *slog.Logger
}

// New creates a Scheduler in the configured timezone ("Local" is the host zone).
func New(cfg *config.ScheduleCfg, logger *slog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	return &Scheduler{cron: c, location: loc, logger: logger}, nil
}

// Daily runs task every day at hh:mm. A previous schedule is replaced.
// A trigger that fires while the previous task still runs is skipped.
func (s *Scheduler) Daily(hour, minute int, task func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}

	expr := fmt.Sprintf("%d %d * * *", minute, hour)
	id, err := s.cron.AddFunc(expr, task)
	if err != nil {
		return fmt.Errorf("add cron entry %q: %w", expr, err)
	}
	s.entryID = id

	s.logger.Info("daily run scheduled", "cron", expr, "timezone", s.location.String())
	return nil
}

// Next is the next trigger time, zero when nothing is scheduled or the scheduler is not running.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// Run starts the scheduler and blocks until ctx is done, then waits for a running task.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("scheduler started")

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}
