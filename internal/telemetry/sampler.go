package telemetry

import (
	"github.com/udaytamma/AiEmailAssistant/internal/cache"
	"github.com/udaytamma/AiEmailAssistant/internal/lifetimer"
)

type sampler struct {
	cache     cache.Cacher
	lifetimer lifetimer.Lifetimer
}

func newSampler(c cache.Cacher, lt lifetimer.Lifetimer) sampler {
	return sampler{cache: c, lifetimer: lt}
}

// snapshot holds cumulative counters (monotonic).
type snapshot struct {
	hits    uint64
	misses  uint64
	writes  uint64
	evicted uint64
	expired uint64

	swept  uint64
	sweeps uint64
}

func (s sampler) snapshot() snapshot {
	hits, misses, writes, evicted, expired := s.cache.CacheMetrics()
	swept, sweeps := s.lifetimer.LifetimerMetrics()

	return snapshot{
		hits:    uint64(max(hits, 0)),
		misses:  uint64(max(misses, 0)),
		writes:  uint64(max(writes, 0)),
		evicted: uint64(max(evicted, 0)),
		expired: uint64(max(expired, 0)),

		swept:  uint64(max(swept, 0)),
		sweeps: uint64(max(sweeps, 0)),
	}
}

// deltaSnapshot converts cumulative snapshots to per-interval deltas.
// If counters reset (cur < prev), it treats cur as the delta.
func deltaSnapshot(prev, cur snapshot) snapshot {
	return snapshot{
		hits:    delta(prev.hits, cur.hits),
		misses:  delta(prev.misses, cur.misses),
		writes:  delta(prev.writes, cur.writes),
		evicted: delta(prev.evicted, cur.evicted),
		expired: delta(prev.expired, cur.expired),

		swept:  delta(prev.swept, cur.swept),
		sweeps: delta(prev.sweeps, cur.sweeps),
	}
}

func delta(prev, cur uint64) uint64 {
	if cur >= prev {
		return cur - prev
	}
	return cur
}
