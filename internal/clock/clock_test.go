package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealClock_Now(t *testing.T) {
	c := RealClock{}

	before := time.Now()
	got := c.Now()
	after := time.Now()

	assert.False(t, got.Before(before), "clock.Now() should not return time before actual time.Now()")
	assert.False(t, got.After(after), "clock.Now() should not return time after actual time.Now()")
}

func TestRealClock_Sleep(t *testing.T) {
	t.Parallel()

	t.Run("waits for duration", func(t *testing.T) {
		t.Parallel()
		start := time.Now()
		require.NoError(t, RealClock{}.Sleep(context.Background(), 20*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("zero duration returns immediately", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, RealClock{}.Sleep(context.Background(), 0))
	})

	t.Run("canceled context interrupts", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := RealClock{}.Sleep(ctx, time.Hour)
		require.ErrorIs(t, err, context.Canceled)
	})
}
