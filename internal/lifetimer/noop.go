package lifetimer

// NoOpLifetimer is a no-op implementation of Lifetimer.
// It sweeps nothing and reports zero metrics.
type NoOpLifetimer struct{}

// LifetimerMetrics always returns zero values.
func (NoOpLifetimer) LifetimerMetrics() (removed, scans int64) {
	return 0, 0
}

// Close does nothing and returns nil.
func (NoOpLifetimer) Close() error {
	return nil
}
