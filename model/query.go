package model

import "time"

// FetchQuery selects the mailbox items of one run.
type FetchQuery struct {
	// Text is the mailbox search expression, e.g. "is:unread newer_than:1d".
	Text string
	// MaxResults caps the number of returned items.
	MaxResults int
	// After excludes items received at or before it. Zero means no lower bound.
	After time.Time
}
