package cachedtime

import (
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

// TestFormatParse_RoundTrip keeps nanosecond precision and the instant.
func TestFormatParse_RoundTrip(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 30, 45, 123456789, time.UTC)

	got, err := Parse(Format(at))
	require.NoError(t, err)
	require.True(t, at.Equal(got))
}

// TestParse_Legacy accepts offset-less timestamps in local time.
func TestParse_Legacy(t *testing.T) {
	got, err := Parse("2025-06-01T12:30:45.123456")
	require.NoError(t, err)
	require.Equal(t, time.Local, got.Location())
	require.Equal(t, 123456000, got.Nanosecond())

	_, err = Parse("yesterday")
	require.Error(t, err)
}

// TestNewMock_Advances is controlled only by Add.
func TestNewMock_Advances(t *testing.T) {
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	m := NewMock(at)
	require.True(t, m.Now().Equal(at))

	m.Add(time.Hour)
	require.True(t, m.Now().Equal(at.Add(time.Hour)))
}

// TestOr_Nil falls back to the real clock.
func TestOr_Nil(t *testing.T) {
	c := Or(nil)
	require.NotNil(t, c)
	require.WithinDuration(t, time.Now(), c.Now(), time.Second)
}
