package model

import (
	model2 "github.com/udaytamma/AiEmailAssistant/model"
	"time"
)

// Entry is one cached value with its bookkeeping timestamps.
// Invariant: accessedAt is never before createdAt.
type Entry struct {
	key        string
	value      model2.Value
	createdAt  time.Time // set once on insert, drives expiry
	accessedAt time.Time // renewed on every read and write, drives eviction
	seq        uint64    // access order within the owning cache, orders accesses that share a timestamp
}

func NewEntry(key string, value model2.Value, now time.Time, seq uint64) *Entry {
	return &Entry{key: key, value: value, createdAt: now, accessedAt: now, seq: seq}
}

// Restore rebuilds an entry read from durable storage, clamping accessedAt to createdAt.
func Restore(key string, value model2.Value, createdAt, accessedAt time.Time) *Entry {
	if accessedAt.Before(createdAt) {
		accessedAt = createdAt
	}
	return &Entry{key: key, value: value, createdAt: createdAt, accessedAt: accessedAt}
}

func (e *Entry) Key() string         { return e.key }
func (e *Entry) Value() model2.Value { return e.value }

// Update replaces the value keeping createdAt.
func (e *Entry) Update(value model2.Value, now time.Time, seq uint64) {
	e.value = value
	e.Touch(now, seq)
}
