package db

import (
	"fmt"
	"github.com/stretchr/testify/require"
	"github.com/udaytamma/AiEmailAssistant/internal/cache/db/model"
	model2 "github.com/udaytamma/AiEmailAssistant/model"
	"math/rand"
	"testing"
	"time"
)

var t0 = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

func entryAt(key string, created, accessed time.Time) *model.Entry {
	return model.Restore(key, model2.AggregateValue([]string{key}), created, accessed)
}

// TestMap_EvictUntilWithinLimit_LeastRecentFirst removes the oldest accessed entries.
func TestMap_EvictUntilWithinLimit_LeastRecentFirst(t *testing.T) {
	m := NewMap()
	m.Set(entryAt("a", t0, t0.Add(3*time.Minute)))
	m.Set(entryAt("b", t0, t0.Add(1*time.Minute)))
	m.Set(entryAt("c", t0, t0.Add(4*time.Minute)))
	m.Set(entryAt("d", t0, t0.Add(2*time.Minute)))

	evicted := m.EvictUntilWithinLimit(2)
	require.Equal(t, []string{"b", "d"}, evicted)
	require.Equal(t, 2, m.Len())

	_, ok := m.Get("a")
	require.True(t, ok)
	_, ok = m.Get("c")
	require.True(t, ok)
}

// TestMap_EvictUntilWithinLimit_TieBreak evicts the earlier created entry on equal access.
func TestMap_EvictUntilWithinLimit_TieBreak(t *testing.T) {
	m := NewMap()
	m.Set(entryAt("late", t0.Add(time.Second), t0.Add(time.Minute)))
	m.Set(entryAt("early", t0, t0.Add(time.Minute)))

	require.Equal(t, []string{"early"}, m.EvictUntilWithinLimit(1))
}

// TestMap_EvictUntilWithinLimit_NoOp does nothing within the limit.
func TestMap_EvictUntilWithinLimit_NoOp(t *testing.T) {
	m := NewMap()
	m.Set(entryAt("a", t0, t0))
	require.Nil(t, m.EvictUntilWithinLimit(1))
	require.Nil(t, m.EvictUntilWithinLimit(5))
	require.Equal(t, 1, m.Len())
}

// TestMap_Remove reports whether the key was present.
func TestMap_Remove(t *testing.T) {
	m := NewMap()
	m.Set(entryAt("a", t0, t0))

	require.True(t, m.Remove("a"))
	require.False(t, m.Remove("a"))
	require.False(t, m.Remove("never"))
	require.Equal(t, 0, m.Len())
}

// TestMap_Eviction_RandomSequences keeps the bound and the most recently accessed keys.
func TestMap_Eviction_RandomSequences(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))

	for round := 0; round < 20; round++ {
		limit := 1 + rnd.Intn(6)
		m := NewMap()
		now := t0
		lastAccess := map[string]time.Time{}

		for op := 0; op < 200; op++ {
			now = now.Add(time.Second)
			key := fmt.Sprintf("k%d", rnd.Intn(15))
			if e, ok := m.Get(key); ok {
				e.Touch(now, uint64(op+1))
			} else {
				m.Set(model.NewEntry(key, model2.AggregateValue(nil), now, uint64(op+1)))
			}
			lastAccess[key] = now
			m.EvictUntilWithinLimit(limit)
			require.LessOrEqual(t, m.Len(), limit)
		}

		// survivors are exactly the most recently accessed keys
		var newestSurvivorMiss time.Time
		m.Walk(func(e *model.Entry) bool {
			require.Equal(t, lastAccess[e.Key()], e.AccessedAt())
			return true
		})
		for key, at := range lastAccess {
			if _, ok := m.Get(key); !ok && at.After(newestSurvivorMiss) {
				newestSurvivorMiss = at
			}
		}
		m.Walk(func(e *model.Entry) bool {
			require.True(t, e.AccessedAt().After(newestSurvivorMiss), "evicted key was more recent than a survivor")
			return true
		})
	}
}

// TestMap_RemoveExpired drops only entries at or past expiry.
func TestMap_RemoveExpired(t *testing.T) {
	m := NewMap()
	m.Set(entryAt("old", t0, t0))
	m.Set(entryAt("edge", t0.Add(time.Hour), t0.Add(time.Hour)))
	m.Set(entryAt("fresh", t0.Add(90*time.Minute), t0.Add(90*time.Minute)))

	removed := m.RemoveExpired(t0.Add(2*time.Hour), time.Hour)
	require.ElementsMatch(t, []string{"old", "edge"}, removed)
	require.Equal(t, 1, m.Len())

	// idempotent
	require.Empty(t, m.RemoveExpired(t0.Add(2*time.Hour), time.Hour))
}

// TestMap_ByCreation orders by creation then key.
func TestMap_ByCreation(t *testing.T) {
	m := NewMap()
	m.Set(entryAt("b", t0, t0.Add(time.Hour)))
	m.Set(entryAt("a", t0, t0))
	m.Set(entryAt("z", t0.Add(-time.Minute), t0))

	var keys []string
	for _, e := range m.ByCreation() {
		keys = append(keys, e.Key())
	}
	require.Equal(t, []string{"z", "a", "b"}, keys)
}
