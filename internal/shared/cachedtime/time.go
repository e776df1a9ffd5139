// Package cachedtime provides the clock every timestamping component reads from
// and the textual timestamp format used in persisted artifacts.
package cachedtime

import (
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
)

// Clock is the injectable time source. Production code uses Real, tests use NewMock.
type Clock = clock.Clock

type Ticker = clock.Ticker

// Layout is the format timestamps are written with.
const Layout = time.RFC3339Nano

// legacyLayouts are accepted on read: offset-less ISO-8601 timestamps as
// written by older cache files, interpreted in local time.
var legacyLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func Real() Clock {
	return clock.New()
}

// NewMock returns a manually advanced clock set to at.
func NewMock(at time.Time) *clock.Mock {
	m := clock.NewMock()
	m.Set(at)
	return m
}

// Or returns c, or the real clock when c is nil.
func Or(c Clock) Clock {
	if c == nil {
		return Real()
	}
	return c
}

func Format(t time.Time) string {
	return t.Format(Layout)
}

// Parse reads a persisted timestamp.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range legacyLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q", s)
}
