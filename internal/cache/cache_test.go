package cache

import (
	"fmt"
	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/udaytamma/AiEmailAssistant/config"
	"github.com/udaytamma/AiEmailAssistant/internal/cache/db/dump"
	"github.com/udaytamma/AiEmailAssistant/internal/shared/cachedtime"
	model2 "github.com/udaytamma/AiEmailAssistant/model"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func cfg(maxSize int, expiry time.Duration) *config.CacheCfg {
	return &config.CacheCfg{MaxSize: maxSize, Expiry: expiry}
}

func itemValue(id string, category model2.Category) model2.Value {
	return model2.ItemValue(model2.ItemRecord{
		CategorizedItem: model2.Categorize(
			model2.Item{ID: id, Subject: "subject " + id},
			model2.Classification{Category: category, Subcategory: model2.SubcategoryGeneral, Summary: "summary " + id, ActionItem: model2.ActionNone},
		),
	})
}

func newTestCache(t *testing.T, maxSize int) (*Cache, *clock.Mock, *dump.Memory) {
	t.Helper()
	clk := cachedtime.NewMock(t0)
	storage := dump.NewMemory()
	return Load(cfg(maxSize, 24*time.Hour), storage, clk, slog.Default()), clk, storage
}

// TestCache_Load_Cold starts empty without a cursor.
func TestCache_Load_Cold(t *testing.T) {
	c, _, _ := newTestCache(t, 3)

	require.Equal(t, 0, c.Len())
	_, ok := c.Cursor()
	require.False(t, ok)
	require.False(t, c.Has("anything"))
}

// TestCache_Load_Corrupt starts empty and does not fail.
func TestCache_Load_Corrupt(t *testing.T) {
	storage := dump.NewMemory()
	storage.SetRaw([]byte("{{{{ definitely not json"))

	c := Load(cfg(3, time.Hour), storage, cachedtime.NewMock(t0), slog.Default())
	require.Equal(t, 0, c.Len())
}

// TestCache_Get_TouchesAndCounts stamps access on hit and counts hits and misses.
func TestCache_Get_TouchesAndCounts(t *testing.T) {
	c, clk, _ := newTestCache(t, 3)
	require.NoError(t, c.Set("m1", itemValue("m1", model2.CategoryFYI)))

	clk.Add(time.Minute)
	v, ok := c.Get("m1")
	require.True(t, ok)
	require.Equal(t, model2.KindItem, v.Kind())

	_, ok = c.Get("m2")
	require.False(t, ok)

	hits, misses, writes, _, _ := c.CacheMetrics()
	require.Equal(t, int64(1), hits)
	require.Equal(t, int64(1), misses)
	require.Equal(t, int64(1), writes)

	entry, _ := c.db.Get("m1")
	require.Equal(t, t0, entry.CreatedAt())
	require.Equal(t, t0.Add(time.Minute), entry.AccessedAt())
}

// TestCache_Has_NoSideEffects leaves the access stamp alone.
func TestCache_Has_NoSideEffects(t *testing.T) {
	c, clk, _ := newTestCache(t, 3)
	require.NoError(t, c.Set("m1", itemValue("m1", model2.CategoryFYI)))

	clk.Add(time.Hour)
	require.True(t, c.Has("m1"))

	entry, _ := c.db.Get("m1")
	require.Equal(t, t0, entry.AccessedAt())
}

// TestCache_Set_OverwriteKeepsCreatedAt renews only the access stamp.
func TestCache_Set_OverwriteKeepsCreatedAt(t *testing.T) {
	c, clk, _ := newTestCache(t, 3)
	require.NoError(t, c.Set("agg", model2.AggregateValue([]string{"x"})))

	clk.Add(time.Hour)
	require.NoError(t, c.Set("agg", model2.AggregateValue([]string{"y"})))

	entry, _ := c.db.Get("agg")
	require.Equal(t, t0, entry.CreatedAt())
	require.Equal(t, t0.Add(time.Hour), entry.AccessedAt())
	agg, _ := entry.Value().Aggregate()
	require.Equal(t, []string{"y"}, agg.Points)
}

// TestCache_Set_RejectsReservedAndEmpty refuses the metadata key and empty values.
func TestCache_Set_RejectsReservedAndEmpty(t *testing.T) {
	c, _, _ := newTestCache(t, 3)

	require.ErrorIs(t, c.Set(MetadataKey, model2.AggregateValue(nil)), ErrMetadataKey)
	require.ErrorIs(t, c.Set("k", model2.Value{}), model2.ErrEmptyValue)
	require.Error(t, c.Set("", model2.AggregateValue(nil)))
	require.Equal(t, 0, c.Len())
}

// TestCache_Set_EvictsLeastRecentlyAccessed keeps the three most recently set items (5 writes, max 3).
func TestCache_Set_EvictsLeastRecentlyAccessed(t *testing.T) {
	c, clk, _ := newTestCache(t, 3)

	for i := 1; i <= 5; i++ {
		clk.Add(time.Second)
		require.NoError(t, c.Set(fmt.Sprintf("m%d", i), itemValue(fmt.Sprintf("m%d", i), model2.CategoryFYI)))
	}

	require.Equal(t, 3, c.Len())
	for _, k := range []string{"m3", "m4", "m5"} {
		require.True(t, c.Has(k), k)
	}
	_, _, _, evicted, _ := c.CacheMetrics()
	require.Equal(t, int64(2), evicted)
}

// TestCache_Get_ProtectsFromEviction makes a read entry outlive newer unread ones.
func TestCache_Get_ProtectsFromEviction(t *testing.T) {
	c, clk, _ := newTestCache(t, 2)

	require.NoError(t, c.Set("a", model2.AggregateValue(nil)))
	clk.Add(time.Second)
	require.NoError(t, c.Set("b", model2.AggregateValue(nil)))
	clk.Add(time.Second)
	_, ok := c.Get("a")
	require.True(t, ok)
	clk.Add(time.Second)
	require.NoError(t, c.Set("c", model2.AggregateValue(nil)))

	require.True(t, c.Has("a"))
	require.False(t, c.Has("b"))
	require.True(t, c.Has("c"))
}

// TestCache_FrozenClock_KeepsJustWrittenEntry evicts the least recent entry when no time passes between writes.
func TestCache_FrozenClock_KeepsJustWrittenEntry(t *testing.T) {
	c, _, _ := newTestCache(t, 2)

	require.NoError(t, c.Set("m", model2.AggregateValue(nil)))
	require.NoError(t, c.Set("y", model2.AggregateValue(nil)))
	_, ok := c.Get("y")
	require.True(t, ok)
	require.NoError(t, c.Set("a", model2.AggregateValue(nil)))

	require.True(t, c.Has("a"))
	require.True(t, c.Has("y"))
	require.False(t, c.Has("m"))
}

// TestCache_FrozenClock_ReadOutlivesNewerCreation keeps a re-read entry over one created later at the same instant.
func TestCache_FrozenClock_ReadOutlivesNewerCreation(t *testing.T) {
	c, clk, _ := newTestCache(t, 2)

	require.NoError(t, c.Set("z", model2.AggregateValue(nil)))
	clk.Add(time.Second)
	require.NoError(t, c.Set("b", model2.AggregateValue(nil)))
	_, ok := c.Get("z")
	require.True(t, ok)
	require.NoError(t, c.Set("c", model2.AggregateValue(nil)))

	require.True(t, c.Has("z"))
	require.False(t, c.Has("b"))
	require.True(t, c.Has("c"))
}

// TestCache_Bound_RandomSequences never exceeds max_size under any operation mix.
func TestCache_Bound_RandomSequences(t *testing.T) {
	rnd := rand.New(rand.NewSource(99))
	for round := 0; round < 10; round++ {
		maxSize := 1 + rnd.Intn(5)
		c, clk, _ := newTestCache(t, maxSize)
		c.SetCursor(t0)

		for op := 0; op < 300; op++ {
			clk.Add(time.Duration(1+rnd.Intn(5)) * time.Second)
			key := fmt.Sprintf("k%d", rnd.Intn(12))
			switch rnd.Intn(3) {
			case 0:
				c.Get(key)
			default:
				require.NoError(t, c.Set(key, model2.AggregateValue([]string{key})))
			}
			require.LessOrEqual(t, c.Len(), maxSize)
		}
		_, ok := c.Cursor()
		require.True(t, ok, "metadata is never evicted")
	}
}

// TestCache_SaveLoad_RoundTrip restores entries, timestamps and the cursor.
func TestCache_SaveLoad_RoundTrip(t *testing.T) {
	c, clk, storage := newTestCache(t, 5)
	require.NoError(t, c.Set("m1", itemValue("m1", model2.CategoryNeedAction)))
	require.NoError(t, c.Set("Need-Action_m1", model2.AggregateValue([]string{"pay bill"})))
	clk.Add(time.Minute)
	c.Get("m1")
	c.SetCursor(t0.Add(30 * time.Second))
	require.NoError(t, c.Save())

	restored := Load(cfg(5, 24*time.Hour), storage, clk, slog.Default())
	require.Equal(t, 2, restored.Len())

	cursor, ok := restored.Cursor()
	require.True(t, ok)
	require.True(t, cursor.Equal(t0.Add(30*time.Second)))

	entry, ok := restored.db.Get("m1")
	require.True(t, ok)
	require.True(t, entry.CreatedAt().Equal(t0))
	require.True(t, entry.AccessedAt().Equal(t0.Add(time.Minute)))

	v, ok := restored.Get("Need-Action_m1")
	require.True(t, ok)
	agg, ok := v.Aggregate()
	require.True(t, ok)
	require.Equal(t, []string{"pay bill"}, agg.Points)
}

// TestCache_Reload_PicksUpExternalWrites sees entries and cursor another cache saved.
func TestCache_Reload_PicksUpExternalWrites(t *testing.T) {
	long, clk, storage := newTestCache(t, 5)
	require.Equal(t, 0, long.Len())
	long.Get("m1")

	other := Load(cfg(5, 24*time.Hour), storage, clk, slog.Default())
	require.NoError(t, other.Set("m1", itemValue("m1", model2.CategoryFYI)))
	other.SetCursor(t0)
	require.NoError(t, other.Save())

	require.False(t, long.Has("m1"))
	long.Reload()

	require.True(t, long.Has("m1"))
	cursor, ok := long.Cursor()
	require.True(t, ok)
	require.True(t, cursor.Equal(t0))

	hits, misses, _, _, _ := long.CacheMetrics()
	require.Zero(t, hits)
	require.Equal(t, int64(1), misses)
}

// TestCache_Load_DropsExpired drops an entry cached 48h ago with a 24h expiry.
func TestCache_Load_DropsExpired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "email_cache.json")
	old := cachedtime.Format(t0.Add(-48 * time.Hour))
	fresh := cachedtime.Format(t0.Add(-time.Hour))
	require.NoError(t, os.WriteFile(path, []byte(`{
  "stale": {"data": {"summary": ["old"]}, "cached_at": "`+old+`", "accessed_at": "`+old+`"},
  "fresh": {"data": {"summary": ["new"]}, "cached_at": "`+fresh+`"},
  "_metadata": {"last_fetch_timestamp": "`+old+`"}
}`), 0o600))

	storage := dump.NewFile(path, false, zerolog.Nop())
	clk := cachedtime.NewMock(t0)

	c := Load(cfg(10, 24*time.Hour), storage, clk, slog.Default())
	require.False(t, c.Has("stale"))
	require.True(t, c.Has("fresh"))

	// metadata never expires
	_, ok := c.Cursor()
	require.True(t, ok)

	// loading again is idempotent
	require.NoError(t, c.Save())
	again := Load(cfg(10, 24*time.Hour), storage, clk, slog.Default())
	require.Equal(t, 1, again.Len())
	require.True(t, again.Has("fresh"))
}

// TestCache_Load_ClampsAccessedAt repairs access stamps older than creation.
func TestCache_Load_ClampsAccessedAt(t *testing.T) {
	storage := dump.NewMemory()
	created := cachedtime.Format(t0)
	accessed := cachedtime.Format(t0.Add(-time.Hour))
	storage.SetRaw([]byte(`{"k": {"data": {"summary": ["x"]}, "cached_at": "` + created + `", "accessed_at": "` + accessed + `"}}`))

	c := Load(cfg(3, 24*time.Hour), storage, cachedtime.NewMock(t0), slog.Default())
	entry, ok := c.db.Get("k")
	require.True(t, ok)
	require.Equal(t, entry.CreatedAt(), entry.AccessedAt())
}

// TestCache_Load_SkipsMalformedRecords keeps readable entries.
func TestCache_Load_SkipsMalformedRecords(t *testing.T) {
	storage := dump.NewMemory()
	ts := cachedtime.Format(t0)
	storage.SetRaw([]byte(`{
		"ok": {"data": {"summary": ["x"]}, "cached_at": "` + ts + `"},
		"bad_time": {"data": {"summary": ["x"]}, "cached_at": "whenever"},
		"bad_data": {"data": {"unexpected": true}, "cached_at": "` + ts + `"}
	}`))

	c := Load(cfg(3, 24*time.Hour), storage, cachedtime.NewMock(t0), slog.Default())
	require.Equal(t, 1, c.Len())
	require.True(t, c.Has("ok"))
}

// TestCache_Items_ReturnsOnlyItemRecords in creation order without touching.
func TestCache_Items_ReturnsOnlyItemRecords(t *testing.T) {
	c, clk, _ := newTestCache(t, 10)
	require.NoError(t, c.Set("m2", itemValue("m2", model2.CategoryFYI)))
	clk.Add(time.Second)
	require.NoError(t, c.Set("FYI_m2", model2.AggregateValue([]string{"s"})))
	clk.Add(time.Second)
	require.NoError(t, c.Set("m1", itemValue("m1", model2.CategoryNeedAction)))
	clk.Add(time.Second)

	items := c.Items()
	require.Len(t, items, 2)
	require.Equal(t, "m2", items[0].ID)
	require.Equal(t, "m1", items[1].ID)

	entry, _ := c.db.Get("m2")
	require.Equal(t, t0, entry.AccessedAt())
}

// TestCache_PurgeExpired sweeps entries past expiry while running.
func TestCache_PurgeExpired(t *testing.T) {
	c, clk, _ := newTestCache(t, 10)
	require.NoError(t, c.Set("a", model2.AggregateValue(nil)))
	clk.Add(23 * time.Hour)
	require.NoError(t, c.Set("b", model2.AggregateValue(nil)))
	clk.Add(time.Hour)

	require.Equal(t, 1, c.PurgeExpired())
	require.False(t, c.Has("a"))
	require.True(t, c.Has("b"))
	require.Equal(t, 0, c.PurgeExpired())
}

// TestCache_Clear empties memory and storage.
func TestCache_Clear(t *testing.T) {
	c, _, storage := newTestCache(t, 3)
	require.NoError(t, c.Set("a", model2.AggregateValue(nil)))
	c.SetCursor(t0)
	require.NoError(t, c.Save())

	require.NoError(t, c.Clear())
	require.Equal(t, 0, c.Len())
	_, ok := c.Cursor()
	require.False(t, ok)
	require.Nil(t, storage.Raw())
}

// TestCache_Stats reports utilization and the creation range.
func TestCache_Stats(t *testing.T) {
	c, clk, _ := newTestCache(t, 4)
	require.NoError(t, c.Set("a", model2.AggregateValue(nil)))
	clk.Add(time.Hour)
	require.NoError(t, c.Set("b", model2.AggregateValue(nil)))

	s := c.Stats()
	require.Equal(t, 2, s.Entries)
	require.Equal(t, 4, s.MaxSize)
	require.InDelta(t, 50.0, s.Utilization, 0.001)
	require.Equal(t, 24.0, s.ExpiryHours)
	require.Equal(t, t0, *s.Oldest)
	require.Equal(t, t0.Add(time.Hour), *s.Newest)
	require.Nil(t, s.Cursor)
	require.Equal(t, "memory", s.Location)
}
