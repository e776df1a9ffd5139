package db

// EvictUntilWithinLimit removes the least recently accessed entries until at most limit remain.
// It returns the evicted keys in eviction order.
func (m *Map) EvictUntilWithinLimit(limit int) (evicted []string) {
	if limit < 0 {
		limit = 0
	}
	excess := m.Len() - limit
	if excess <= 0 {
		return nil
	}

	victims := m.ByRecency()[:excess]
	evicted = make([]string, 0, excess)
	for _, v := range victims {
		m.Remove(v.Key())
		evicted = append(evicted, v.Key())
	}
	return evicted
}
