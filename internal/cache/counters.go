package cache

import "sync/atomic"

type counters struct {
	hits    atomic.Int64
	misses  atomic.Int64
	writes  atomic.Int64
	evicted atomic.Int64 // entries removed by the size bound
	expired atomic.Int64 // entries dropped on load or by a sweep
}

func newCounters() *counters {
	return &counters{
		hits:    atomic.Int64{},
		misses:  atomic.Int64{},
		writes:  atomic.Int64{},
		evicted: atomic.Int64{},
		expired: atomic.Int64{},
	}
}

func (c *counters) snapshot() (hits, misses, writes, evicted, expired int64) {
	return c.hits.Load(), c.misses.Load(), c.writes.Load(), c.evicted.Load(), c.expired.Load()
}
