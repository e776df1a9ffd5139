package cache

import "time"

// Stats describes the cache contents.
type Stats struct {
	Entries     int           `json:"total_entries"`
	MaxSize     int           `json:"max_size"`
	Utilization float64       `json:"utilization_percent"`
	Expiry      time.Duration `json:"-"`
	ExpiryHours float64       `json:"expiry_hours"`
	Oldest      *time.Time    `json:"oldest_entry,omitempty"`
	Newest      *time.Time    `json:"newest_entry,omitempty"`
	Cursor      *time.Time    `json:"last_fetch,omitempty"`
	Location    string        `json:"location"`
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Entries:     c.db.Len(),
		MaxSize:     c.cfg.MaxSize,
		Expiry:      c.cfg.Expiry,
		ExpiryHours: c.cfg.Expiry.Hours(),
		Location:    c.storage.Location(),
	}
	if c.cfg.MaxSize > 0 {
		s.Utilization = float64(s.Entries) / float64(c.cfg.MaxSize) * 100
	}
	if byCreation := c.db.ByCreation(); len(byCreation) > 0 {
		oldest := byCreation[0].CreatedAt()
		newest := byCreation[len(byCreation)-1].CreatedAt()
		s.Oldest, s.Newest = &oldest, &newest
	}
	if c.cursor != nil {
		cur := *c.cursor
		s.Cursor = &cur
	}
	return s
}
