package db

import (
	"github.com/udaytamma/AiEmailAssistant/internal/cache/db/model"
	"slices"
)

// ByRecency returns every entry ordered from least to most recently accessed.
func (m *Map) ByRecency() []*model.Entry {
	entries := make([]*model.Entry, 0, len(m.items))
	for _, e := range m.items {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, model.LessRecent)
	return entries
}

// ByCreation returns every entry ordered from oldest to newest creation, ties by key.
func (m *Map) ByCreation() []*model.Entry {
	entries := make([]*model.Entry, 0, len(m.items))
	for _, e := range m.items {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b *model.Entry) int {
		if c := a.CreatedAt().Compare(b.CreatedAt()); c != 0 {
			return c
		}
		switch {
		case a.Key() < b.Key():
			return -1
		case a.Key() > b.Key():
			return 1
		}
		return 0
	})
	return entries
}
