package rate

import (
	"context"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

// TestLimiter_SpacesCalls enforces the interval between consecutive calls.
func TestLimiter_SpacesCalls(t *testing.T) {
	l := NewLimiter(20, time.Second) // one call per 50ms
	require.Equal(t, 50*time.Millisecond, l.Interval())

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(ctx))
	}
	require.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

// TestLimiter_Wait_Canceled returns the context error.
func TestLimiter_Wait_Canceled(t *testing.T) {
	l := NewLimiter(1, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, l.Wait(ctx), context.Canceled)
}

// TestNewLimiter_Defaults clamps invalid arguments.
func TestNewLimiter_Defaults(t *testing.T) {
	l := NewLimiter(0, 0)
	require.Equal(t, time.Minute, l.Interval())
}

// TestNoOp_Wait never blocks on a live context.
func TestNoOp_Wait(t *testing.T) {
	require.NoError(t, NoOp{}.Wait(context.Background()))
}
