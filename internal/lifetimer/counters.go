package lifetimer

import "sync/atomic"

type lifetimerCounters struct {
	removed atomic.Int64 // entries dropped by sweeps
	scans   atomic.Int64 // total sweeps
}

func newLifetimerCounters() *lifetimerCounters {
	return &lifetimerCounters{
		removed: atomic.Int64{},
		scans:   atomic.Int64{},
	}
}

func (c *lifetimerCounters) snapshot() (removed, scans int64) {
	return c.removed.Load(), c.scans.Load()
}
