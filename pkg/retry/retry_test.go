package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestWithBackoffSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(5), zaptest.NewLogger(t), "flaky", func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithBackoffExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(3), zaptest.NewLogger(t), "always", func() error {
		calls++
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "always failed after 3 attempts")
}

func TestWithBackoffStopsOnPermanent(t *testing.T) {
	bad := errors.New("bad connection string")
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(5), zaptest.NewLogger(t), "parse", func() error {
		calls++
		return Permanent(bad)
	})

	require.Equal(t, bad, err)
	assert.Equal(t, 1, calls)
}

func TestWithBackoffHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := WithBackoff(ctx, fastConfig(5), zaptest.NewLogger(t), "cancelled", func() error {
		called = true
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestBackoff(t *testing.T) {
	cfg := Config{InitialDelay: time.Second, MaxDelay: 10 * time.Second, Multiplier: 2.0}

	assert.Equal(t, time.Second, Backoff(cfg, 1))
	assert.Equal(t, 2*time.Second, Backoff(cfg, 2))
	assert.Equal(t, 8*time.Second, Backoff(cfg, 4))
	assert.Equal(t, 10*time.Second, Backoff(cfg, 10), "capped at max")

	cfg.Jitter = true
	for i := 0; i < 20; i++ {
		d := Backoff(cfg, 2)
		assert.GreaterOrEqual(t, d, 1700*time.Millisecond)
		assert.LessOrEqual(t, d, 2300*time.Millisecond)
	}
}
