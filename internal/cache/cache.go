// Package cache is the durable key-value cache of classified items and summaries.
//
// Entries live in memory and are persisted as one JSON document by Save. Expiry is
// enforced when the cache is loaded (and by an explicit PurgeExpired sweep): an entry
// that expires while a process is running stays readable until the next load. Runs are
// short-lived batches, so this only matters for long-lived processes, which sweep.
//
// The size bound is enforced inside Set: once the number of entries exceeds the
// configured maximum, the least recently accessed entries are evicted.
package cache

import (
	"errors"
	"fmt"
	"github.com/udaytamma/AiEmailAssistant/config"
	"github.com/udaytamma/AiEmailAssistant/internal/cache/db"
	"github.com/udaytamma/AiEmailAssistant/internal/cache/db/dump"
	"github.com/udaytamma/AiEmailAssistant/internal/cache/db/model"
	"github.com/udaytamma/AiEmailAssistant/internal/shared/cachedtime"
	model2 "github.com/udaytamma/AiEmailAssistant/model"
	"log/slog"
	"sync"
	"time"
)

// MetadataKey is reserved for the fetch cursor and is never a regular entry.
const MetadataKey = dump.MetadataKey

var ErrMetadataKey = errors.New("key is reserved for cache metadata")

type Cacher interface {
	Has(key string) bool
	Get(key string) (model2.Value, bool)
	Set(key string, value model2.Value) error
	Items() []model2.ItemRecord
	Cursor() (time.Time, bool)
	SetCursor(at time.Time)
	Save() error
	Clear() error
	Len() int
	Stats() Stats
	CacheMetrics() (hits, misses, writes, evicted, expired int64)
}

// Cache is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	cfg      *config.CacheCfg
	storage  dump.Storage
	clock    cachedtime.Clock
	logger   *slog.Logger
	db       *db.Map
	cursor   *time.Time
	seq      uint64 // last access sequence number handed to an entry
	counters *counters
}

// Load restores the cache from storage. An absent or unreadable document yields an
// empty cache; entries whose age reached the configured expiry are dropped.
func Load(cfg *config.CacheCfg, storage dump.Storage, clock cachedtime.Clock, logger *slog.Logger) *Cache {
	c := &Cache{
		cfg:      cfg,
		storage:  storage,
		clock:    cachedtime.Or(clock),
		logger:   logger,
		db:       db.NewMap(),
		counters: newCounters(),
	}
	c.Reload()
	return c
}

// Reload replaces entries and cursor with the stored document, picking up what another
// process saved since the last load. Counters survive the reload.
func (c *Cache) Reload() {
	entries, cursor := c.read()

	c.mu.Lock()
	c.db = entries
	c.cursor = cursor
	c.mu.Unlock()
}

func (c *Cache) read() (*db.Map, *time.Time) {
	entries := db.NewMap()

	snap, err := c.storage.Read()
	switch {
	case errors.Is(err, dump.ErrNoDump):
		c.logger.Info("cache is cold", "location", c.storage.Location())
		return entries, nil
	case err != nil:
		c.logger.Warn("cache is unreadable, starting empty", "location", c.storage.Location(), "err", err)
		return entries, nil
	}

	now := c.clock.Now()
	var expired, malformed int
	for key, rec := range snap.Entries {
		entry, err := restore(key, rec)
		if err != nil {
			malformed++
			c.logger.Debug("skipping malformed cache record", "key", key, "err", err)
			continue
		}
		if entry.IsExpired(now, c.cfg.Expiry) {
			expired++
			continue
		}
		entries.Set(entry)
	}
	c.counters.expired.Add(int64(expired))

	var cursor *time.Time
	if ts := snap.Metadata.LastFetchTimestamp; ts != nil {
		if at, err := cachedtime.Parse(*ts); err == nil {
			cursor = &at
		} else {
			c.logger.Warn("ignoring malformed fetch cursor", "value", *ts, "err", err)
		}
	}

	c.logger.Info("cache loaded",
		"location", c.storage.Location(),
		"entries", entries.Len(),
		"expired", expired,
		"malformed", malformed,
	)
	return entries, cursor
}

// Has reports whether key is present without touching it.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.db.Get(key)
	return ok
}

// Get returns the value under key and stamps the access.
func (c *Cache) Get(key string) (model2.Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.get(key); ok {
		c.counters.hits.Add(1)
		return entry.Value(), true
	}
	c.counters.misses.Add(1)
	return model2.Value{}, false
}

// Set creates or overwrites key, then evicts down to the size bound.
func (c *Cache) Set(key string, value model2.Value) error {
	if key == MetadataKey {
		return ErrMetadataKey
	}
	if key == "" {
		return errors.New("empty cache key")
	}
	if value.Kind() == model2.KindNone {
		return fmt.Errorf("set %s: %w", key, model2.ErrEmptyValue)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.set(key, value)
	c.counters.writes.Add(1)

	if evicted := c.db.EvictUntilWithinLimit(c.cfg.MaxSize); len(evicted) > 0 {
		c.counters.evicted.Add(int64(len(evicted)))
		c.logger.Debug("cache evicted entries", "keys", evicted, "max_size", c.cfg.MaxSize)
	}
	return nil
}

// Items returns every item record, oldest first, without touching them.
func (c *Cache) Items() []model2.ItemRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []model2.ItemRecord
	for _, e := range c.db.ByCreation() {
		if rec, ok := e.Value().Item(); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Cursor returns the last successful fetch time.
func (c *Cache) Cursor() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cursor == nil {
		return time.Time{}, false
	}
	return *c.cursor, true
}

func (c *Cache) SetCursor(at time.Time) {
	c.mu.Lock()
	c.cursor = &at
	c.mu.Unlock()
}

// Save persists every entry and the cursor atomically.
func (c *Cache) Save() error {
	c.mu.Lock()
	snap, err := c.snapshot()
	c.mu.Unlock()
	if err != nil {
		return err
	}

	if err = c.storage.Write(snap); err != nil {
		return fmt.Errorf("save cache: %w", err)
	}
	return nil
}

// Clear empties the cache and removes its durable document.
func (c *Cache) Clear() error {
	c.mu.Lock()
	c.db.Clear()
	c.cursor = nil
	c.mu.Unlock()

	if err := c.storage.Remove(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	c.logger.Info("cache cleared", "location", c.storage.Location())
	return nil
}

// PurgeExpired drops entries whose age reached expiry and returns how many were dropped.
func (c *Cache) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := c.db.RemoveExpired(c.clock.Now(), c.cfg.Expiry)
	c.counters.expired.Add(int64(len(removed)))
	return len(removed)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Len()
}

func (c *Cache) CacheMetrics() (hits, misses, writes, evicted, expired int64) {
	return c.counters.snapshot()
}

/**
 * Private API.
 */

func (c *Cache) get(key string) (*model.Entry, bool) {
	if entry, found := c.db.Get(key); found {
		return c.touch(entry), true
	}
	return nil, false
}

func (c *Cache) set(key string, value model2.Value) {
	now := c.clock.Now()
	if old, found := c.db.Get(key); found {
		old.Update(value, now, c.nextSeq())
		return
	}
	c.db.Set(model.NewEntry(key, value, now, c.nextSeq()))
}

func (c *Cache) touch(existing *model.Entry) *model.Entry {
	existing.Touch(c.clock.Now(), c.nextSeq())
	return existing
}

func (c *Cache) nextSeq() uint64 {
	c.seq++
	return c.seq
}

func (c *Cache) snapshot() (dump.Snapshot, error) {
	snap := dump.Snapshot{Entries: make(map[string]dump.Record, c.db.Len())}

	var err error
	c.db.Walk(func(e *model.Entry) bool {
		data, merr := e.Value().MarshalJSON()
		if merr != nil {
			err = fmt.Errorf("encode %s: %w", e.Key(), merr)
			return false
		}
		snap.Entries[e.Key()] = dump.Record{
			Data:       data,
			CachedAt:   cachedtime.Format(e.CreatedAt()),
			AccessedAt: cachedtime.Format(e.AccessedAt()),
		}
		return true
	})
	if err != nil {
		return dump.Snapshot{}, err
	}

	if c.cursor != nil {
		ts := cachedtime.Format(*c.cursor)
		snap.Metadata.LastFetchTimestamp = &ts
	}
	return snap, nil
}

func restore(key string, rec dump.Record) (*model.Entry, error) {
	var value model2.Value
	if err := value.UnmarshalJSON(rec.Data); err != nil {
		return nil, err
	}

	createdAt, err := cachedtime.Parse(rec.CachedAt)
	if err != nil {
		return nil, fmt.Errorf("cached_at: %w", err)
	}

	accessedAt := createdAt
	if rec.AccessedAt != "" {
		if at, err := cachedtime.Parse(rec.AccessedAt); err == nil {
			accessedAt = at
		}
	}
	return model.Restore(key, value, createdAt, accessedAt), nil
}
