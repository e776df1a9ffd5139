// Package metrics records what a run did: model calls, cache traffic, processed items and errors.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/udaytamma/AiEmailAssistant/model"
)

// Run summarizes one pipeline run.
type Run struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Fetched   int
	New       int
	Cached    int
	Errors    int
	Err       error // fatal error, nil on success
}

// Sink receives measurements. Implementations must be safe for concurrent use
// and must never fail their caller.
type Sink interface {
	APICall(api, op string, elapsed time.Duration, err error)
	CacheOp(op string, hit bool)
	ItemProcessed(id string, category model.Category, elapsed time.Duration)
	Error(module string, err error)
	RunFinished(run Run)
}

// Counters is an in-memory Sink.
type Counters struct {
	apiCalls    atomic.Int64
	apiFailures atomic.Int64
	apiNanos    atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	items       atomic.Int64
	errors      atomic.Int64
	runs        atomic.Int64
	failedRuns  atomic.Int64
}

func NewCounters() *Counters { return &Counters{} }

func (c *Counters) APICall(_, _ string, elapsed time.Duration, err error) {
	c.apiCalls.Add(1)
	c.apiNanos.Add(int64(elapsed))
	if err != nil {
		c.apiFailures.Add(1)
	}
}

func (c *Counters) CacheOp(_ string, hit bool) {
	if hit {
		c.cacheHits.Add(1)
	} else {
		c.cacheMisses.Add(1)
	}
}

func (c *Counters) ItemProcessed(string, model.Category, time.Duration) {
	c.items.Add(1)
}

func (c *Counters) Error(string, error) {
	c.errors.Add(1)
}

func (c *Counters) RunFinished(run Run) {
	c.runs.Add(1)
	if run.Err != nil {
		c.failedRuns.Add(1)
	}
}

// Snapshot is a point-in-time copy of Counters.
type Snapshot struct {
	APICalls    int64         `json:"api_calls"`
	APIFailures int64         `json:"api_failures"`
	APITime     time.Duration `json:"api_time_ns"`
	CacheHits   int64         `json:"cache_hits"`
	CacheMisses int64         `json:"cache_misses"`
	Items       int64         `json:"items_processed"`
	Errors      int64         `json:"errors"`
	Runs        int64         `json:"runs"`
	FailedRuns  int64         `json:"failed_runs"`
}

// HitRate is the share of cache lookups that hit, in percent.
func (s Snapshot) HitRate() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total) * 100
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		APICalls:    c.apiCalls.Load(),
		APIFailures: c.apiFailures.Load(),
		APITime:     time.Duration(c.apiNanos.Load()),
		CacheHits:   c.cacheHits.Load(),
		CacheMisses: c.cacheMisses.Load(),
		Items:       c.items.Load(),
		Errors:      c.errors.Load(),
		Runs:        c.runs.Load(),
		FailedRuns:  c.failedRuns.Load(),
	}
}
