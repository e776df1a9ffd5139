// Package db holds the in-memory entry table of the cache and its eviction and expiry passes.
// Map is not safe for concurrent use; the owning cache serializes access.
package db

import (
	"github.com/udaytamma/AiEmailAssistant/internal/cache/db/model"
)

// Map is the entry table keyed by cache key.
type Map struct {
	items map[string]*model.Entry
}

func NewMap() *Map {
	return &Map{items: make(map[string]*model.Entry)}
}

// Set inserts or replaces the entry stored under its key.
func (m *Map) Set(entry *model.Entry) {
	m.items[entry.Key()] = entry
}

func (m *Map) Get(key string) (*model.Entry, bool) {
	e, ok := m.items[key]
	return e, ok
}

// Remove deletes a key and reports whether it was present.
func (m *Map) Remove(key string) bool {
	if _, ok := m.items[key]; !ok {
		return false
	}
	delete(m.items, key)
	return true
}

func (m *Map) Len() int {
	return len(m.items)
}

func (m *Map) Clear() {
	clear(m.items)
}

// Walk visits entries in unspecified order until fn returns false.
func (m *Map) Walk(fn func(e *model.Entry) bool) {
	for _, e := range m.items {
		if !fn(e) {
			return
		}
	}
}
