package db

import "time"

// RemoveExpired drops every entry whose age reached expiry and returns their keys.
func (m *Map) RemoveExpired(now time.Time, expiry time.Duration) (removed []string) {
	for key, e := range m.items {
		if e.IsExpired(now, expiry) {
			m.Remove(key)
			removed = append(removed, key)
		}
	}
	return removed
}
