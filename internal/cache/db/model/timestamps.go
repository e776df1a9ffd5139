package model

import "time"

func (e *Entry) CreatedAt() time.Time {
	return e.createdAt
}

func (e *Entry) AccessedAt() time.Time {
	return e.accessedAt
}

// RenewAccessedAt stamps an access. A clock that went backwards never moves accessedAt below createdAt.
func (e *Entry) RenewAccessedAt(now time.Time) {
	if now.Before(e.createdAt) {
		now = e.createdAt
	}
	e.accessedAt = now
}

// Touch stamps an access at now with the owner's next access sequence number.
func (e *Entry) Touch(now time.Time, seq uint64) {
	e.RenewAccessedAt(now)
	e.seq = seq
}

func (e *Entry) Seq() uint64 {
	return e.seq
}

// Age is the time elapsed since creation.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.createdAt)
}

// IsExpired reports whether the entry reached expiry. A non-positive expiry never expires.
func (e *Entry) IsExpired(now time.Time, expiry time.Duration) bool {
	return expiry > 0 && e.Age(now) >= expiry
}

// LessRecent orders entries by last access, then access sequence, then creation, then key.
// It is the eviction order: the first entry is evicted first.
// Restored entries share sequence 0 and fall back to creation and key.
func LessRecent(a, b *Entry) int {
	if c := a.accessedAt.Compare(b.accessedAt); c != 0 {
		return c
	}
	switch {
	case a.seq < b.seq:
		return -1
	case a.seq > b.seq:
		return 1
	}
	if c := a.createdAt.Compare(b.createdAt); c != 0 {
		return c
	}
	switch {
	case a.key < b.key:
		return -1
	case a.key > b.key:
		return 1
	}
	return 0
}
